package adminapi

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/trackflag/pkg/logger"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

const (
	SessionHeader = "X-Session-ID"
	maxSessionLen = 128
)

var validSessionID = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// sessionLookupTimeout bounds the fallback lookup for headerless requests.
const sessionLookupTimeout = 250 * time.Millisecond

// SessionMiddleware stores the caller's session id in the request context and
// echoes it in the response. A valid X-Session-ID header wins. Otherwise the id
// comes from sessions (for example a shared scoped identity); when sessions is
// nil or has no identity to offer, a fresh one is minted.
func SessionMiddleware(sessions rollout.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if !isValidSessionID(id) {
				id = fallbackSessionID(r.Context(), sessions)
			}
			w.Header().Set(SessionHeader, id)
			next.ServeHTTP(w, r.WithContext(rollout.WithSessionID(r.Context(), id)))
		})
	}
}

func fallbackSessionID(ctx context.Context, sessions rollout.SessionStore) string {
	if sessions != nil {
		ctx, cancel := context.WithTimeout(ctx, sessionLookupTimeout)
		defer cancel()
		if id, err := sessions.GetOrCreate(ctx); err == nil && isValidSessionID(id) {
			return id
		}
	}
	return uuid.NewString()
}

func isValidSessionID(id string) bool {
	return id != "" && len(id) <= maxSessionLen && validSessionID.MatchString(id)
}

// LoggerExtractor adds the session id to log records written with a request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := rollout.SessionIDFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return logger.SessionID(id), true
	}
}
