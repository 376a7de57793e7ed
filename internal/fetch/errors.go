package fetch

import "fmt"

// RequestError reports a request that could not be built or sent.
// Responses with error status codes are not errors.
type RequestError struct {
	Method    string
	URL       string
	RequestID string
	Err       error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
