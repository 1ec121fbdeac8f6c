// Package errors provides thin wrappers around cockroachdb/errors so the
// rest of the codebase does not import it directly.
package errors

import (
	cerrors "github.com/cockroachdb/errors"
)

// New creates a new error with the given message.
func New(msg string) error {
	return cerrors.New(msg)
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return cerrors.Newf(format, args...)
}

// Wrap wraps an error with a context message. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cerrors.Wrap(err, msg)
}

// Wrapf wraps an error with a formatted context message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return cerrors.Wrapf(err, format, args...)
}
