package middleware

import (
	"net/http"
	"strconv"

	"github.com/jguan/nas-assistant/pkg/infra/logger"
	"github.com/jguan/nas-assistant/pkg/infra/ratelimit"
)

// RateLimit limits requests per chat, falling back to the remote address
// for requests that carry no chat. Over the limit it answers 429 without
// calling next.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if chatID, ok := logger.GetChatID(r.Context()); ok {
				key = "chat:" + strconv.FormatInt(chatID, 10)
			}
			if key == "" {
				key = "unknown"
			}

			allowed, err := limiter.Allow(key)
			if err != nil || !allowed {
				w.Header().Set("Retry-After", "60")
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "⏳ Troppe richieste, riprova tra poco")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
