package adminapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/trackflag/pkg/logger"
)

type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpError is an API error with a stable machine-readable code.
type httpError struct {
	Status int
	Code   string
}

func (e httpError) Error() string { return e.Code }

var (
	errBadRequest  = httpError{Status: http.StatusBadRequest, Code: "bad_request"}
	errUnknownFlag = httpError{Status: http.StatusNotFound, Code: "unknown_flag"}
	errNotFound    = httpError{Status: http.StatusNotFound, Code: "not_found"}
	errNotAllowed  = httpError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed"}
	errUnavailable = httpError{Status: http.StatusServiceUnavailable, Code: "audit_unavailable"}
)

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, e httpError, err error) {
	msg := http.StatusText(e.Status)
	if err != nil {
		msg = err.Error()
		if e.Status >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "admin request failed",
				slog.String("path", r.URL.Path), logger.Error(err))
		}
	}
	writeJSON(w, e.Status, envelope{Error: &errorDetail{Code: e.Code, Message: msg}})
}
