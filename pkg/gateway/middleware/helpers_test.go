package middleware

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/jguan/nas-assistant/pkg/infra/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"text":"ok"}`))
})

// captureLogs routes the package logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	logger.Reset()
	logger.Init(logger.Config{Level: "debug", Format: "json", Output: buf})
	t.Cleanup(logger.Reset)
	return buf
}
