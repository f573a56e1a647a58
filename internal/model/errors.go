package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCompanyNotFound is returned by Store.FindCompanyByName on a miss.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrJobNotFound is returned when an update matches no job row.
	ErrJobNotFound = errors.New("job not found")
)

// HTTPError wraps a non-2xx status from an upstream API.
type HTTPError struct {
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
