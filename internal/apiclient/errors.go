package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnauthorized is returned when a request failed authorization and
// the token could not be refreshed. The session has been cleared.
var ErrUnauthorized = errors.New("session expired")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

func newAPIError(resp *Response) *APIError {
	return &APIError{
		Status:  resp.Status,
		Message: extractMessage(resp.Body),
		Body:    resp.Body,
	}
}

// extractMessage reads the server message from {"message": ...},
// {"error": ...} or a bare JSON string body.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var obj struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg := stringValue(obj.Message); msg != "" {
			return msg
		}
		if msg := stringValue(obj.Error); msg != "" {
			return msg
		}
		return ""
	}
	var bare string
	if err := json.Unmarshal(body, &bare); err == nil {
		return strings.TrimSpace(bare)
	}
	return ""
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

type unauthorized struct {
	cause *APIError
}

func unauthorizedError(cause *APIError) error {
	return &unauthorized{cause: cause}
}

func (u *unauthorized) Error() string {
	return ErrUnauthorized.Error() + ": " + u.cause.Error()
}

func (u *unauthorized) Unwrap() []error {
	return []error{ErrUnauthorized, u.cause}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf extracts a human-readable message: the server-provided
// message when there is one, otherwise fallback.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
