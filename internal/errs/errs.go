// Package errs provides support for errors related to this app.
package errs

import (
	"errors"
	"fmt"
	"runtime"
)

// Error represents an error inside the application that knows the http status
// code it should be reported with.
type Error struct {
	Code     int               `json:"code"`
	Message  string            `json:"message"`
	FuncName string            `json:"-"`
	FileName string            `json:"-"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// New creates an app error with the given code and a formatted message.
func New(code int, format string, args ...any) error {
	//skip 1 frame, we want whoever called "New".
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// NewValidationErr creates an app error carrying the fields that failed validation.
func NewValidationErr(code int, fields map[string]string) error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  "input validation failed",
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		Fields:   fields,
	}
}

func (er *Error) Error() string {
	return er.Message
}

// IsError reports whether err is, or wraps, an app error.
func IsError(err error) bool {
	var er *Error
	return errors.As(err, &er)
}

// GetError returns the app error inside err, nil when there is none.
func GetError(err error) *Error {
	var er *Error
	if !errors.As(err, &er) {
		return nil
	}
	return er
}
