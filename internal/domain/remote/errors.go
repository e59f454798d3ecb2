package remote

import (
	"errors"
	"fmt"
)

// AuthError reports rejected credentials (HTTP 401/403).
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("remote authentication failed with status %d", e.Status)
}

// NotFoundError reports a missing remote resource (HTTP 404).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote %s %s not found", e.Resource, e.ID)
}

// ClientError covers transport failures and unexpected statuses.
type ClientError struct {
	Op     string
	Status int
	Err    error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s failed with status %d", e.Op, e.Status)
}

func (e *ClientError) Unwrap() error { return e.Err }

// IsAuth reports whether err wraps an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err wraps a missing-resource failure.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
