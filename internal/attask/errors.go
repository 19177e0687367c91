package attask

import (
	"errors"
	"fmt"
)

// Sentinel errors for the API client.
var (
	// ErrAPI matches every *APIError via errors.Is.
	ErrAPI = errors.New("attask api request failed")

	// ErrNoData indicates a successful response without a "data" member.
	ErrNoData = errors.New("response has no data field")

	// ErrNoIDs indicates GetList was called with an empty id list.
	ErrNoIDs = errors.New("at least one id is required")

	// ErrUnknownObjCode indicates an object code outside the supported set.
	ErrUnknownObjCode = errors.New("unknown object code")

	// ErrUnexpectedShape indicates the data member is not the JSON type the call returns.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// APIError is returned when a request fails at the transport level or the
// server answers with a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Path is the API path that was requested.
	Path string
	// Body is the parsed JSON error body, when the server sent one.
	Body any
	// RawBody is the unparsed error body.
	RawBody []byte
	// Err is the underlying cause.
	Err error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %v", ErrAPI, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: status %d: %v", ErrAPI, e.Path, e.StatusCode, e.Err)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAPI) true for any *APIError.
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// Message extracts a human-readable message from the error body. The API
// nests it as {"error": {"message": ...}}; a bare {"error": "..."} is also accepted.
func (e *APIError) Message() string {
	body, ok := e.Body.(map[string]any)
	if !ok {
		return ""
	}
	switch v := body["error"].(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}
