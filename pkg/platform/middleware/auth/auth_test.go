package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	audit "opdclaims/pkg/platform/audit"
	"opdclaims/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

type recordingEmitter struct {
	events []audit.Event
}

func (e *recordingEmitter) Emit(_ context.Context, event audit.Event) error {
	e.events = append(e.events, event)
	return nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var operator string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator = requestcontext.Operator(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token sets operator", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := RequireAuth(stubValidator{claims: &JWTClaims{Operator: "ops@plum"}}, emitter, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/claims", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "ops@plum", operator)
		assert.Empty(t, emitter.events)
	})

	t.Run("missing header", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := RequireAuth(stubValidator{}, emitter, logger)(next)
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/claims", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, rr.Body.String())
		if assert.Len(t, emitter.events, 1) {
			assert.Equal(t, string(audit.EventAuthFailed), emitter.events[0].Action)
			assert.Equal(t, "missing token", emitter.events[0].Reason)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		h := RequireAuth(stubValidator{err: errors.New("bad signature")}, nil, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/claims", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
