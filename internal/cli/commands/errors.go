package commands

import (
	"errors"

	"github.com/coursehub/coursehub/internal/cli/client"
)

// reportedError marks an error the user has already seen as a toast
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// reported marks err as shown. An expired session shows no toast, so it
// becomes ErrLoginRequired and is printed like a guard redirect.
func reported(err error) error {
	if err == nil {
		return nil
	}
	if client.KindOf(err) == client.KindUnauthorized {
		return ErrLoginRequired
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
