package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/gateway/middleware"
)

// LongRunningHeader marks replies that waited on the generative backend,
// so a transport can show a typing hint on the next call.
const LongRunningHeader = "X-Long-Running"

const maxRequestBody = 64 << 10

type CommandRequest struct {
	Args string `json:"args,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type TextResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req CommandRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, NewErrorInfo(ErrCodeInvalidRequest, err.Error()))
		return
	}

	s.reply(w, r, name, req.Args)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, NewErrorInfo(ErrCodeInvalidRequest, err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, NewErrorInfo(ErrCodeInvalidRequest, "message is required"))
		return
	}

	s.reply(w, r, assistant.CmdChat, req.Message)
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, command, args string) {
	command = assistant.NormalizeCommand(command)

	start := time.Now()
	text, err := s.dispatcher.Dispatch(r.Context(), command, args)
	s.record(command, time.Since(start), err)

	switch {
	case err == nil:
	case errors.Is(err, assistant.ErrGenerativeBackend) && text != "":
		// The rendered failure is the chat reply; the metrics above already
		// counted the error.
	case errors.Is(err, assistant.ErrUnknownCommand):
		writeError(w, http.StatusNotFound, NewErrorInfo(ErrCodeUnknownCommand, err.Error()))
		return
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, NewErrorInfo(ErrCodeInvalidRequest, err.Error()))
		return
	default:
		writeError(w, http.StatusInternalServerError, NewErrorInfo(ErrCodeInternalError, err.Error()))
		return
	}

	if assistant.IsLongRunning(command) {
		w.Header().Set(LongRunningHeader, "true")
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: text})
}

// record counts unknown commands under one key so arbitrary paths cannot
// grow the metrics map.
func (s *Server) record(command string, latency time.Duration, err error) {
	if errors.Is(err, assistant.ErrUnknownCommand) {
		command = "unknown"
	}
	s.metrics.Record(command, latency, err != nil)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// decodeOptional decodes a JSON body into v; an empty body leaves v as is.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, info *ErrorInfo) {
	middleware.WriteError(w, status, info.Code, info.Message)
}
