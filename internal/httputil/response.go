package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/crystalview/internal/monitoring"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// JSON encodes v and writes it with status. Encoding happens before the
// header is sent, so a value that cannot be encoded yields a 500 instead of
// a truncated body.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		monitoring.Logf("encode %T response: %v", v, err)
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(ErrorBody{Error: "response encoding failed", Status: status})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		monitoring.Debugf("write response: %v", err)
	}
}

// Error writes msg as an ErrorBody with status.
func Error(w http.ResponseWriter, status int, msg string) {
	if status >= http.StatusInternalServerError {
		monitoring.Logf("http %d: %s", status, msg)
	}
	JSON(w, status, ErrorBody{Error: msg, Status: status})
}

// Errorf is Error with a formatted message.
func Errorf(w http.ResponseWriter, status int, format string, args ...interface{}) {
	Error(w, status, fmt.Sprintf(format, args...))
}

// MethodNotAllowed writes a 405 listing the allowed methods in the Allow
// header.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	Errorf(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
}
