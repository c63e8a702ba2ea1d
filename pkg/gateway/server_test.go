package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/gateway/middleware"
	"github.com/jguan/nas-assistant/pkg/infra/logger"
	"github.com/jguan/nas-assistant/pkg/infra/ratelimit"
)

const allowedChat = "612838063"

type fakeDispatcher struct {
	calls   []string
	args    []string
	chatIDs []int64
	text    string
	err     error
	panic   bool
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, command, args string) (string, error) {
	if f.panic {
		panic("dispatcher exploded")
	}
	f.calls = append(f.calls, command)
	f.args = append(f.args, args)
	if id, ok := logger.GetChatID(ctx); ok {
		f.chatIDs = append(f.chatIDs, id)
	}
	if f.err != nil {
		return f.text, f.err
	}
	if command == "unknown" {
		return "", fmt.Errorf("%w: %s", assistant.ErrUnknownCommand, command)
	}
	return "reply to " + command, nil
}

func newTestServer(d Dispatcher, limiter ratelimit.Limiter) http.Handler {
	return NewServer(d, ServerConfig{
		AllowChat: func(id int64) bool { return id == 612838063 },
		Limiter:   limiter,
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, chatID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if chatID != "" {
		req.Header.Set(middleware.ChatIDHeader, chatID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp TextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Text
}

func TestHealth_NoAuthRequired(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{}, nil), http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestCommand(t *testing.T) {
	d := &fakeDispatcher{}
	rec := do(t, newTestServer(d, nil), http.MethodPost, "/api/v1/commands/status", allowedChat, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reply to status", decodeText(t, rec))
	assert.Equal(t, []string{"status"}, d.calls)
	assert.Equal(t, []int64{612838063}, d.chatIDs)
	assert.Empty(t, rec.Header().Get(LongRunningHeader))
}

func TestCommand_LongRunningHeader(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{}, nil), http.MethodPost, "/api/v1/commands/disks", allowedChat, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(LongRunningHeader))
}

func TestCommand_Unknown(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{}, nil), http.MethodPost, "/api/v1/commands/unknown", allowedChat, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrCodeUnknownCommand)
}

func TestCommand_DispatchError(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("boom")}
	rec := do(t, newTestServer(d, nil), http.MethodPost, "/api/v1/commands/status", allowedChat, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCommand_InvalidBody(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{}, nil), http.MethodPost, "/api/v1/commands/status", allowedChat, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommand_WrongMethod(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{}, nil), http.MethodGet, "/api/v1/commands/status", allowedChat, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChat(t *testing.T) {
	d := &fakeDispatcher{}
	rec := do(t, newTestServer(d, nil), http.MethodPost, "/api/v1/chat", allowedChat, `{"message":"Come sta il RAID1?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reply to chat", decodeText(t, rec))
	assert.Equal(t, []string{"Come sta il RAID1?"}, d.args)
	assert.Equal(t, "true", rec.Header().Get(LongRunningHeader))
}

func TestChat_EmptyMessage(t *testing.T) {
	d := &fakeDispatcher{}
	for _, body := range []string{"", `{}`, `{"message":"   "}`} {
		rec := do(t, newTestServer(d, nil), http.MethodPost, "/api/v1/chat", allowedChat, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%q", body)
	}
	assert.Empty(t, d.calls)
}

func TestUnauthorizedChat(t *testing.T) {
	d := &fakeDispatcher{}
	h := newTestServer(d, nil)

	for _, chatID := range []string{"", "42", "abc"} {
		rec := do(t, h, http.MethodPost, "/api/v1/commands/status", chatID, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, "chat=%q", chatID)
		assert.Contains(t, rec.Body.String(), middleware.UnauthorizedMessage)
	}
	assert.Empty(t, d.calls, "unauthorized chats must never reach the assistant")
}

func TestDefaultConfig_DeniesEveryChat(t *testing.T) {
	h := NewServer(&fakeDispatcher{}, ServerConfig{}).Handler()
	rec := do(t, h, http.MethodPost, "/api/v1/commands/help", allowedChat, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimited(t *testing.T) {
	h := newTestServer(&fakeDispatcher{}, ratelimit.New(1, 2))

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/v1/commands/help", allowedChat, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/v1/commands/help", allowedChat, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPanicRecovered(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{panic: true}, nil), http.MethodPost, "/api/v1/commands/status", allowedChat, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(&fakeDispatcher{}, ServerConfig{})
	cfg := s.Config()

	assert.Equal(t, "127.0.0.1:8088", cfg.Addr)
	assert.Greater(t, cfg.WriteTimeout, cfg.ReadTimeout)
	assert.NotNil(t, cfg.AllowChat)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestStopRacingStart(t *testing.T) {
	s := NewServer(&fakeDispatcher{}, ServerConfig{Addr: "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	require.NoError(t, s.Stop(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestMetrics(t *testing.T) {
	s := NewServer(&fakeDispatcher{}, ServerConfig{
		AllowChat: func(id int64) bool { return id == 612838063 },
	})
	h := s.Handler()

	do(t, h, http.MethodPost, "/api/v1/commands/status", allowedChat, "")
	do(t, h, http.MethodPost, "/api/v1/commands/status", allowedChat, "")
	do(t, h, http.MethodPost, "/api/v1/commands/nope", allowedChat, "")
	do(t, h, http.MethodPost, "/api/v1/commands/unknown", allowedChat, "")

	rec := do(t, h, http.MethodGet, "/api/v1/metrics", allowedChat, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap struct {
		TotalRequests int64 `json:"total_requests"`
		TotalErrors   int64 `json:"total_errors"`
		Commands      []struct {
			Command  string `json:"command"`
			Requests int64  `json:"requests"`
		} `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	require.Len(t, snap.Commands, 3)
	assert.Equal(t, "nope", snap.Commands[0].Command)
	assert.Equal(t, "status", snap.Commands[1].Command)
	assert.Equal(t, int64(2), snap.Commands[1].Requests)
}

func TestCommand_BackendFailureShownAndCounted(t *testing.T) {
	d := &fakeDispatcher{
		text: "❌ Errore Ollama: connection refused",
		err:  fmt.Errorf("%w: connection refused", assistant.ErrGenerativeBackend),
	}
	s := NewServer(d, ServerConfig{AllowChat: func(id int64) bool { return id == 612838063 }})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/commands/disks", allowedChat, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "❌ Errore Ollama: connection refused", decodeText(t, rec))
	assert.Equal(t, "true", rec.Header().Get(LongRunningHeader))

	rec = do(t, h, http.MethodPost, "/api/v1/chat", allowedChat, `{"message":"ciao"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := s.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.TotalErrors)
}

func TestMetrics_CommandNamesNormalized(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewServer(d, ServerConfig{AllowChat: func(id int64) bool { return id == 612838063 }})
	h := s.Handler()

	for _, name := range []string{"status", "STATUS", "Status"} {
		rec := do(t, h, http.MethodPost, "/api/v1/commands/"+name, allowedChat, "")
		require.Equal(t, http.StatusOK, rec.Code, name)
	}

	snap := s.Metrics().Snapshot()
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, "status", snap.Commands[0].Command)
	assert.Equal(t, int64(3), snap.Commands[0].Requests)
	assert.Equal(t, []string{"status", "status", "status"}, d.calls)
}

func TestMetrics_RequiresAuth(t *testing.T) {
	rec := do(t, newTestServer(&fakeDispatcher{}, nil), http.MethodGet, "/api/v1/metrics", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
