package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as an uncached JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// Failure is the body of every refused request.
type Failure struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// WriteFailure writes a Failure with the given status code.
func WriteFailure(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, Failure{Success: false, Msg: msg})
}

// MaxBodyBytes bounds the size of a JSON request body.
const MaxBodyBytes = 64 << 10

// DecodeJSON decodes the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
}
