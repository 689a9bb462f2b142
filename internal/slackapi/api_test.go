package slackapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

const testSigningSecret = "test-signing-secret"

type mockService struct {
	mu          sync.Mutex
	submissions []*incident.Submission

	rec *incident.Record
	err error

	getRec    *incident.Record
	getOK     bool
	getErr    error
	recentRes []*incident.Record
	recentErr error
}

func (m *mockService) Process(_ context.Context, sub *incident.Submission) (*incident.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, sub)
	return m.rec, m.err
}

func (m *mockService) Get(context.Context, string) (*incident.Record, bool, error) {
	return m.getRec, m.getOK, m.getErr
}

func (m *mockService) Recent(context.Context, int) ([]*incident.Record, error) {
	return m.recentRes, m.recentErr
}

func (m *mockService) processedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

func (m *mockService) lastSubmission() *incident.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.submissions) == 0 {
		return nil
	}
	return m.submissions[len(m.submissions)-1]
}

type sentReply struct {
	channel     string
	threadTS    string
	responseURL string
	text        string
}

type mockMessenger struct {
	replies chan sentReply
	err     error
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{replies: make(chan sentReply, 8)}
}

func (m *mockMessenger) ReplyInThread(_ context.Context, channel, threadTS, text string) error {
	m.replies <- sentReply{channel: channel, threadTS: threadTS, text: text}
	return m.err
}

func (m *mockMessenger) RespondEphemeral(_ context.Context, responseURL, text string) error {
	m.replies <- sentReply{responseURL: responseURL, text: text}
	return m.err
}

func awaitReply(t *testing.T, m *mockMessenger) sentReply {
	t.Helper()
	select {
	case r := <-m.replies:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for slack reply")
		return sentReply{}
	}
}

func testRecord() *incident.Record {
	return &incident.Record{
		ID:              "01HTESTRECORD000000000000",
		IncidentText:    "payments API returning 500s",
		CustomerMessage: "We are investigating an issue.",
		InternalMessage: "Payments API is throwing 500s; on-call engaged.",
		UserID:          "U123",
		ChannelID:       "C456",
		Source:          incident.SourceMention,
		CreatedAt:       time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestAPI(t *testing.T) (*API, *mockService, *mockMessenger) {
	t.Helper()
	svc := &mockService{rec: testRecord()}
	msgr := newMockMessenger()
	api := New(nil, svc, msgr, testSigningSecret, "")
	return api, svc, msgr
}

func newTestRouter(t *testing.T) (chi.Router, *mockService, *mockMessenger) {
	t.Helper()
	api, svc, msgr := newTestAPI(t)
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r, svc, msgr
}

// signRequest attaches a valid Slack v0 signature for body.
func signRequest(t *testing.T, req *http.Request, body string) {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

//  New / constructor

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, &mockService{}, newMockMessenger(), testSigningSecret, "")
	if api == nil {
		t.Fatal("New returned nil API")
	}
	if api.logger == nil {
		t.Fatal("New left logger nil; expected Nop logger")
	}
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New did not panic; expected panic for nil service")
		}
	}()
	New(nil, nil, newMockMessenger(), testSigningSecret, "")
}

func TestNew_NilMessenger_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New did not panic; expected panic for nil messenger")
		}
	}()
	New(nil, &mockService{}, nil, testSigningSecret, "")
}

// Routing

func TestRegisterRoutes_SlackEndpointsRequireSignature(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	paths := []string{"/slack/events", "/slack/commands"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("POST %s without signature = %d, want %d", path, rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRegisterRoutes_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/slack/events"},
		{http.MethodGet, "/slack/commands"},
		{http.MethodPost, "/api/v1/records"},
		{http.MethodDelete, "/api/v1/records/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestRegisterRoutes_RecordsAuth(t *testing.T) {
	t.Parallel()

	svc := &mockService{getRec: testRecord(), getOK: true}
	api := New(nil, svc, newMockMessenger(), testSigningSecret, "records-token")
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/v1/records without token = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/records", http.NoBody)
	req.Header.Set("Authorization", "Bearer records-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/v1/records with token = %d, want %d", rec.Code, http.StatusOK)
	}
}

// process outcome mapping

func TestProcess_Success_RepliesWithFormattedRecord(t *testing.T) {
	t.Parallel()

	api, svc, msgr := newTestAPI(t)

	sub := &incident.Submission{Text: "db down", Source: incident.SourceMention}
	api.process(context.Background(), sub, func(ctx context.Context, text string) error {
		return msgr.ReplyInThread(ctx, "C1", "123.456", text)
	})

	got := awaitReply(t, msgr)
	want := incident.FormatReply(svc.rec)
	if got.text != want {
		t.Errorf("reply text = %q, want %q", got.text, want)
	}
}

func TestProcess_EmptyText_RepliesWithUsageHint(t *testing.T) {
	t.Parallel()

	svc := &mockService{err: incident.ErrEmptyText}
	msgr := newMockMessenger()
	api := New(nil, svc, msgr, testSigningSecret, "")

	sub := &incident.Submission{Source: incident.SourceMention}
	api.process(context.Background(), sub, func(ctx context.Context, text string) error {
		return msgr.ReplyInThread(ctx, "C1", "1.2", text)
	})

	got := awaitReply(t, msgr)
	if got.text != usageHint {
		t.Errorf("reply text = %q, want usage hint %q", got.text, usageHint)
	}
}

func TestProcess_GenerateError_RepliesWithGenericFailure(t *testing.T) {
	t.Parallel()

	svc := &mockService{err: errors.New("model unavailable")}
	msgr := newMockMessenger()
	api := New(nil, svc, msgr, testSigningSecret, "")

	sub := &incident.Submission{Text: "db down", Source: incident.SourceCommand}
	api.process(context.Background(), sub, func(ctx context.Context, text string) error {
		return msgr.RespondEphemeral(ctx, "https://hooks.slack.test/r1", text)
	})

	got := awaitReply(t, msgr)
	if got.text != genericFailure {
		t.Errorf("reply text = %q, want generic failure %q", got.text, genericFailure)
	}
}

func TestProcess_ReplyDeliveryFailure_DoesNotPanic(t *testing.T) {
	t.Parallel()

	api, _, msgr := newTestAPI(t)
	msgr.err = errors.New("channel_not_found")

	sub := &incident.Submission{Text: "db down", Source: incident.SourceMention}
	api.process(context.Background(), sub, func(ctx context.Context, text string) error {
		return msgr.ReplyInThread(ctx, "C1", "1.2", text)
	})

	awaitReply(t, msgr)
}

// Records API

func TestHandleGetRecord_Found(t *testing.T) {
	t.Parallel()

	rec0 := testRecord()
	svc := &mockService{getRec: rec0, getOK: true}
	api := New(nil, svc, newMockMessenger(), testSigningSecret, "")
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/"+rec0.ID, http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got incident.Record
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != rec0.ID {
		t.Errorf("id = %q, want %q", got.ID, rec0.ID)
	}
	if got.CustomerMessage != rec0.CustomerMessage {
		t.Errorf("customer message = %q, want %q", got.CustomerMessage, rec0.CustomerMessage)
	}
}

func TestHandleGetRecord_NotFound(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/missing", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleGetRecord_StoreError(t *testing.T) {
	t.Parallel()

	svc := &mockService{getErr: errors.New("backend down")}
	api := New(nil, svc, newMockMessenger(), testSigningSecret, "")
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/abc", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHandleListRecords(t *testing.T) {
	t.Parallel()

	svc := &mockService{recentRes: []*incident.Record{testRecord()}}
	api := New(nil, svc, newMockMessenger(), testSigningSecret, "")
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Records []*incident.Record `json:"records"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(resp.Records))
	}
}

func TestHandleListRecords_EmptyIsArrayNotNull(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"records":[]`) {
		t.Errorf("body = %q, want empty records array", body)
	}
}

func TestHandleListRecords_InvalidLimit(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	for _, limit := range []string{"abc", "0", "-5"} {
		t.Run(limit, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/records?limit="+limit, http.NoBody)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%q status = %d, want %d", limit, rec.Code, http.StatusBadRequest)
			}
		})
	}
}
