package httpkit

import (
	"encoding/json"
	"io"
	"net/http"
)

// MaxJSONBody caps request bodies read by ReadBody.
const MaxJSONBody = 1 << 20

// ErrorEnvelope is the shape of every JSON error body.
type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// ReadBody reads at most MaxJSONBody bytes of the request body.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, MaxJSONBody))
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
