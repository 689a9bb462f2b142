package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// LLM provider selection values.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// Config holds app-specific configuration. Ambient concerns (http
// server, logging, ops listener, tracing, profiling) register their own
// Config structs from go-core.
type Config struct {
	DrainSeconds           int
	ShutdownBudgetSeconds  int
	APIPort                int
	GenerateTimeoutSeconds int
	PersistTimeoutSeconds  int

	SlackBotToken      string
	SlackSigningSecret string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	ClaudeAPIKey string
	ClaudeModel  string

	ParseAPIURL  string
	ParseAppID   string
	ParseRESTKey string
	DatabaseURL  string

	APIToken string

	DevMemoryStore bool
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 30, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 60, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8000, "API listen TCP port (1..65535)")
	fs.IntVar(&c.GenerateTimeoutSeconds, "generate-timeout-seconds", 60, "per-call timeout for LLM message generation (1..300)")
	fs.IntVar(&c.PersistTimeoutSeconds, "persist-timeout-seconds", 30, "per-call timeout for record persistence (1..300)")
	fs.StringVar(&c.SlackBotToken, "slack-bot-token", "", "Slack bot token (xoxb-...) for posting replies")
	fs.StringVar(&c.SlackSigningSecret, "slack-signing-secret", "", "Slack signing secret for verifying inbound requests")
	fs.StringVar(&c.LLMProvider, "llm-provider", ProviderGemini, "LLM backend for message generation (gemini or claude)")
	fs.StringVar(&c.GeminiAPIKey, "gemini-api-key", "", "API key for the Gemini provider")
	fs.StringVar(&c.GeminiModel, "gemini-model", "gemini-2.5-flash", "Gemini model to use")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.ParseAPIURL, "parse-api-url", "", "Parse/SashiDo REST API base URL (empty = use database-url)")
	fs.StringVar(&c.ParseAppID, "parse-app-id", "", "Parse application ID")
	fs.StringVar(&c.ParseRESTKey, "parse-rest-key", "", "Parse REST API key")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (alternative to parse-api-url)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token protecting the records API (empty = records API open)")
	fs.BoolVar(&c.DevMemoryStore, "dev-memory-store", false, "use the in-memory store; records are lost on restart (dev only)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Per-call timeouts
	if c.GenerateTimeoutSeconds <= 0 || c.GenerateTimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid GENERATE_TIMEOUT_SECONDS %d (must be 1..300)", c.GenerateTimeoutSeconds))
	}
	if c.PersistTimeoutSeconds <= 0 || c.PersistTimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid PERSIST_TIMEOUT_SECONDS %d (must be 1..300)", c.PersistTimeoutSeconds))
	}

	// Slack credentials are required to receive events and post replies
	if c.SlackBotToken == "" {
		errs = append(errs, errors.New("SLACK_BOT_TOKEN is required"))
	}
	if c.SlackSigningSecret == "" {
		errs = append(errs, errors.New("SLACK_SIGNING_SECRET is required"))
	}

	// Exactly one known LLM provider, with its key present
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for llm-provider=gemini"))
		}
		if c.GeminiModel == "" {
			errs = append(errs, errors.New("GEMINI_MODEL must not be empty"))
		}
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required for llm-provider=claude"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q (must be gemini or claude)", c.LLMProvider))
	}

	// A persistence backend is required unless the dev store is opted into
	if c.ParseAPIURL != "" {
		if c.ParseAppID == "" {
			errs = append(errs, errors.New("PARSE_APP_ID is required when PARSE_API_URL is set"))
		}
		if c.ParseRESTKey == "" {
			errs = append(errs, errors.New("PARSE_REST_KEY is required when PARSE_API_URL is set"))
		}
	} else if c.DatabaseURL == "" && !c.DevMemoryStore {
		errs = append(errs, errors.New("no persistence backend: set PARSE_API_URL or DATABASE_URL (or -dev-memory-store for local dev)"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
