package fawkes

// HTTPError carries an HTTP status and an optional application error code.
// A handler returning one produces a JSON error body with the carried status;
// any other error produces a 500. See Handler.
type HTTPError struct {
	Status  int
	Code    int
	Message string

	hasCode bool
}

// NewHTTPError creates an HTTPError with the given status.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// NewHTTPErrorCode creates an HTTPError carrying an application error code
// that is emitted alongside the message in the error body.
func NewHTTPErrorCode(status, code int, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, hasCode: true}
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ErrorCode returns the application error code, if one was set.
func (e *HTTPError) ErrorCode() (int, bool) {
	return e.Code, e.hasCode
}
