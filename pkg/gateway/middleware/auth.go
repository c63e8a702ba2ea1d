package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jguan/nas-assistant/pkg/infra/logger"
)

const (
	ChatIDHeader = "X-Chat-ID"

	// UnauthorizedMessage is the only text an unknown chat ever receives.
	UnauthorizedMessage = "❌ Non autorizzato"
)

// ChatAuth admits a request only when its X-Chat-ID header parses as an
// integer accepted by allowed. An empty allow-list therefore denies every
// chat.
func ChatAuth(allowed func(chatID int64) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(ChatIDHeader))
			chatID, err := strconv.ParseInt(raw, 10, 64)
			if raw == "" || err != nil || !allowed(chatID) {
				logger.WithContext(r.Context()).Warn("chat rejected",
					slog.String("chat_id", raw),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				WriteError(w, http.StatusForbidden, "FORBIDDEN", UnauthorizedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(logger.SetChatID(r.Context(), chatID)))
		})
	}
}
