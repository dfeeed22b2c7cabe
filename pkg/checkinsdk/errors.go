package checkinsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a refused request.
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("checkin: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("checkin: %d %s", e.StatusCode, e.Msg)
}

// StatusCode returns the HTTP status of err when it is an *APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var msg MessageResponse
	_ = json.Unmarshal(body, &msg)
	return &APIError{StatusCode: resp.StatusCode, Msg: msg.Msg}
}
