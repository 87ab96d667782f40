package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the uniform response shape. Success responses carry data,
// failures carry a machine-readable error, and both echo the request id so a
// caller can quote it against the access log.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(w http.ResponseWriter, data any, requestID string) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	write(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	write(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

// ServerError is Fail at 500: the failure is ours, not the caller's.
func ServerError(w http.ResponseWriter, code, message, requestID string) {
	Fail(w, http.StatusInternalServerError, code, message, requestID)
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Warn("response write failed", "requestId", env.RequestID, "err", err)
	}
}
