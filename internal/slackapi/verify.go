package slackapi

import (
	"bytes"
	"io"
	"net/http"

	"github.com/slack-go/slack"
)

// verifySignature checks the Slack v0 HMAC signature on inbound
// requests. The body is consumed for the check and restored for the
// handler. Rejected requests never reach the service.
func (a *API) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}

		verifier, err := slack.NewSecretsVerifier(r.Header, a.signingSecret)
		if err != nil {
			a.logger.Warn(r.Context(), "slack signature headers missing or malformed", "error", err)
			http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
			return
		}
		if _, err := verifier.Write(body); err != nil {
			http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
			return
		}
		if err := verifier.Ensure(); err != nil {
			a.logger.Warn(r.Context(), "slack signature mismatch", "error", err)
			http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}
