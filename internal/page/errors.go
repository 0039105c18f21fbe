package page

import "fmt"

// HTTPError is a non-2xx API response.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

func newHTTPError(status int, bodyMessage string) *HTTPError {
	msg := bodyMessage
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &HTTPError{Status: status, Message: msg}
}

// TransportError is a request that produced no usable response: the
// network failed or a success body did not parse.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
