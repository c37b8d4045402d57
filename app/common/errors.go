package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDataUnavailable is returned when the dataset or topology could not be
// loaded. Views depending on the data stay unrendered.
var ErrDataUnavailable = errors.New("data unavailable")

type UserVisibleError struct {
	HttpCode int
	Message  string
}

func (e *UserVisibleError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.HttpCode, e.Message)
}

func NewUserVisibleError(httpCode int, message string) *UserVisibleError {
	return &UserVisibleError{
		HttpCode: httpCode,
		Message:  message,
	}
}

func BadRequest(format string, args ...any) *UserVisibleError {
	return NewUserVisibleError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func WrapErrorForResponse(err error, message string) error {
	var e *UserVisibleError
	if errors.As(err, &e) {
		return &UserVisibleError{
			HttpCode: e.HttpCode,
			Message:  fmt.Sprintf("%s: %s", message, e.Message),
		}
	}
	if errors.Is(err, ErrDataUnavailable) {
		return NewUserVisibleError(http.StatusServiceUnavailable, message+": data is not available")
	}
	return err
}
