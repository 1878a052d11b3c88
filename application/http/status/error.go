package status

import (
	"fmt"

	"http-conn/application/http"
)

// Error ties a failure to the status that should be reported for it.
type Error struct {
	cause  error
	Status http.StatusCode
}

func NewError(err error, status http.StatusCode) Error {
	return Error{cause: err, Status: status}
}

func (e Error) Error() string {
	cause := ""
	if e.cause != nil {
		cause = e.cause.Error()
	}

	return fmt.Sprintf(
		"%d %s: %q", e.Status.Code, e.Status.ReasonPhrase, cause,
	)
}

func (e Error) Cause() error  { return e.cause }
func (e Error) Unwrap() error { return e.cause }
