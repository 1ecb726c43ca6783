// Package apperr defines the structured error type shared by the edit
// pipeline and its collaborators.
//
// Every failure that crosses a package boundary carries an HTTP-style
// status, a short machine-readable code, and a human-readable message so
// the transport layer can map it to a response without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Error is a failure with enough structure to surface to a caller.
type Error struct {
	// Status is the HTTP-style status to report (400, 404, 413, 500, ...).
	Status int `json:"status"`

	// Code is a stable machine-readable identifier, e.g.
	// "SmartCrop::FaceIndexOutOfRange" or "TooLargeImageException".
	Code string `json:"code"`

	// Message describes the failure for humans.
	Message string `json:"message"`
}

// New creates an Error with the given status, code and message.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(status int, code, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Wrap converts an arbitrary error into an *Error. If err already is one
// (directly or wrapped), it is returned unchanged; otherwise it is wrapped
// with status 500 and the given code. Collaborator failures that supply no
// status default to 500 this way.
func Wrap(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Status: 500, Code: code, Message: err.Error()}
}

// StatusOf extracts the status from an error, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 500
}
