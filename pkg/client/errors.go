package client

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned by Send when the draft is empty or whitespace.
// No request is issued in that case.
var ErrEmptyMessage = errors.New("message body is empty")

// ErrNotCompleted is returned by Archive when the last loaded status is not
// completed. The archive action is only offered on completed reports.
var ErrNotCompleted = errors.New("report is not completed")

// ErrAdminOnly is returned for operations restricted to admin viewers.
var ErrAdminOnly = errors.New("admin role required")

// APIError carries an error response from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}
