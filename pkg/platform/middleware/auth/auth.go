// Package auth guards the claims API with operator bearer tokens.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "opdclaims/pkg/domain-errors"
	audit "opdclaims/pkg/platform/audit"
	"opdclaims/pkg/platform/httputil"
	"opdclaims/pkg/requestcontext"
)

// JWTValidator checks a raw bearer token.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims is what the middleware needs from a validated token.
type JWTClaims struct {
	Operator string
	JTI      string
}

// RequireAuth rejects requests without a valid bearer token and records the
// operator in the request context. Rejections are audited when emitter is
// non-nil.
func RequireAuth(validator JWTValidator, emitter audit.Emitter, logger *slog.Logger) func(http.Handler) http.Handler {
	g := guard{validator: validator, emitter: emitter, logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				g.deny(w, r, "missing token", nil, "Missing or invalid Authorization header")
				return
			}
			claims, err := g.validator.ValidateToken(token)
			if err != nil {
				g.deny(w, r, "invalid token", err, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithOperator(r.Context(), claims.Operator)))
		})
	}
}

type guard struct {
	validator JWTValidator
	emitter   audit.Emitter
	logger    *slog.Logger
}

func (g guard) deny(w http.ResponseWriter, r *http.Request, reason string, cause error, message string) {
	ctx := r.Context()
	attrs := []any{"reason", reason, "path", r.URL.Path, "request_id", requestcontext.RequestID(ctx)}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	g.logger.WarnContext(ctx, "request rejected by auth", attrs...)

	if g.emitter != nil {
		err := g.emitter.Emit(ctx, audit.Event{
			Action:    string(audit.EventAuthFailed),
			Reason:    reason,
			RequestID: requestcontext.RequestID(ctx),
			Client:    requestcontext.Client(ctx),
			Details:   map[string]any{"method": r.Method, "path": r.URL.Path},
		})
		if err != nil {
			g.logger.WarnContext(ctx, "auth rejection not audited", "error", err)
		}
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, message))
}
