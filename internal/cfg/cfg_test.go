package cfg

import (
	"flag"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:           30,
		ShutdownBudgetSeconds:  60,
		APIPort:                8000,
		GenerateTimeoutSeconds: 60,
		PersistTimeoutSeconds:  30,
		SlackBotToken:          "xoxb-test",
		SlackSigningSecret:     "secret",
		LLMProvider:            ProviderGemini,
		GeminiAPIKey:           "ai-key",
		GeminiModel:            "gemini-2.5-flash",
		ParseAPIURL:            "https://pg-app-test.scalabl.cloud/1",
		ParseAppID:             "app-id",
		ParseRESTKey:           "rest-key",
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 60 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 60", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", c.APIPort)
	}
	if c.LLMProvider != ProviderGemini {
		t.Errorf("LLMProvider = %q, want gemini", c.LLMProvider)
	}
	if c.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q, want %q", c.GeminiModel, "gemini-2.5-flash")
	}
	if c.DevMemoryStore {
		t.Error("DevMemoryStore default should be false")
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-http-port", "9000",
		"-llm-provider", "claude",
		"-claude-api-key", "sk-override",
		"-slack-bot-token", "xoxb-x",
		"-slack-signing-secret", "s",
		"-database-url", "postgres://localhost/commsbot",
		"-dev-memory-store",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.APIPort != 9000 {
		t.Errorf("APIPort = %d, want 9000", c.APIPort)
	}
	if c.LLMProvider != ProviderClaude {
		t.Errorf("LLMProvider = %q, want claude", c.LLMProvider)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want sk-override", c.ClaudeAPIKey)
	}
	if c.DatabaseURL != "postgres://localhost/commsbot" {
		t.Errorf("DatabaseURL = %q, want postgres://localhost/commsbot", c.DatabaseURL)
	}
	if !c.DevMemoryStore {
		t.Error("DevMemoryStore = false, want true")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:   "base is valid",
			mutate: func(*Config) {},
		},
		{
			name: "postgres instead of parse",
			mutate: func(c *Config) {
				c.ParseAPIURL, c.ParseAppID, c.ParseRESTKey = "", "", ""
				c.DatabaseURL = "postgres://localhost/commsbot"
			},
		},
		{
			name: "dev memory store without backend",
			mutate: func(c *Config) {
				c.ParseAPIURL, c.ParseAppID, c.ParseRESTKey = "", "", ""
				c.DevMemoryStore = true
			},
		},
		{
			name:      "drain zero",
			mutate:    func(c *Config) { c.DrainSeconds = 0 },
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "shutdown budget below drain",
			mutate:    func(c *Config) { c.ShutdownBudgetSeconds = 20 },
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS", "DRAIN_SECONDS"},
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.APIPort = 70000 },
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "generate timeout zero",
			mutate:    func(c *Config) { c.GenerateTimeoutSeconds = 0 },
			wantErr:   true,
			errSubstr: []string{"GENERATE_TIMEOUT_SECONDS"},
		},
		{
			name:      "missing bot token",
			mutate:    func(c *Config) { c.SlackBotToken = "" },
			wantErr:   true,
			errSubstr: []string{"SLACK_BOT_TOKEN"},
		},
		{
			name:      "missing signing secret",
			mutate:    func(c *Config) { c.SlackSigningSecret = "" },
			wantErr:   true,
			errSubstr: []string{"SLACK_SIGNING_SECRET"},
		},
		{
			name:      "gemini without key",
			mutate:    func(c *Config) { c.GeminiAPIKey = "" },
			wantErr:   true,
			errSubstr: []string{"GEMINI_API_KEY"},
		},
		{
			name: "claude without key",
			mutate: func(c *Config) {
				c.LLMProvider = ProviderClaude
				c.ClaudeAPIKey = ""
			},
			wantErr:   true,
			errSubstr: []string{"CLAUDE_API_KEY"},
		},
		{
			name:      "unknown provider",
			mutate:    func(c *Config) { c.LLMProvider = "gpt" },
			wantErr:   true,
			errSubstr: []string{"LLM_PROVIDER"},
		},
		{
			name:      "parse url without app id",
			mutate:    func(c *Config) { c.ParseAppID = "" },
			wantErr:   true,
			errSubstr: []string{"PARSE_APP_ID"},
		},
		{
			name:      "parse url without rest key",
			mutate:    func(c *Config) { c.ParseRESTKey = "" },
			wantErr:   true,
			errSubstr: []string{"PARSE_REST_KEY"},
		},
		{
			name: "no persistence backend at all",
			mutate: func(c *Config) {
				c.ParseAPIURL, c.ParseAppID, c.ParseRESTKey = "", "", ""
			},
			wantErr:   true,
			errSubstr: []string{"no persistence backend"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validBase()
			tt.mutate(&c)

			err := c.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			for _, sub := range tt.errSubstr {
				if !strings.Contains(err.Error(), sub) {
					t.Errorf("error %q missing substring %q", err, sub)
				}
			}
		})
	}
}
