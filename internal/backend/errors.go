package backend

import (
	"errors"
	"fmt"
	"time"
)

// NetworkError reports a failed backend call: a non-2xx answer, a timeout or a
// transport failure. Error returns the backend's own detail message unchanged
// when it supplied one.
type NetworkError struct {
	Path       string
	StatusCode int
	Detail     string
	Timeout    time.Duration // set when the call ran out of budget
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Timeout > 0:
		return fmt.Sprintf("timeout of %s exceeded", e.Timeout)
	case e.StatusCode != 0:
		return fmt.Sprintf("request failed with status code %d", e.StatusCode)
	case e.Err != nil:
		return "network error: " + e.Err.Error()
	default:
		return "network error"
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
