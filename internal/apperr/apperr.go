// Package apperr holds the error taxonomy shared by the listener, the store
// and the query bridge.
//
// Three sentinel classes exist: permission denied, storage failure and decode
// failure. Query paths surface them as *Error values carrying a short code
// that the host can switch on; the broadcast path logs and drops them.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means the SMS read capability is not granted.
	ErrPermissionDenied = errors.New("sms read permission not granted")
	// ErrStorage wraps persistence read/write failures.
	ErrStorage = errors.New("storage failure")
	// ErrDecode wraps malformed PDUs and undecodable stored records.
	ErrDecode = errors.New("decode failure")
	// ErrInvalidInput is returned for malformed query arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// Codes surfaced to the host.
const (
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeCheckPermission  = "ERROR_CHECK_SMS"
	CodeRequestPerm      = "ERROR_REQUEST_SMS"
	CodeReadSMS          = "ERROR_READ_SMS"
	CodeCountSMS         = "ERROR_COUNT_SMS"
	CodeReadRange        = "ERROR_READ_SMS_RANGE"
	CodeGetStored        = "ERROR_GET_STORED_SMS"
	CodeClearStored      = "ERROR_CLEAR_STORED_SMS"
	CodeInvalidInput     = "INVALID_INPUT"
)

// Error is a rejected query: a short code plus a human readable message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err under code. Permission failures always carry
// CodePermissionDenied regardless of the requested code.
func New(code string, err error) *Error {
	if errors.Is(err, ErrPermissionDenied) {
		code = CodePermissionDenied
	}
	if errors.Is(err, ErrInvalidInput) {
		code = CodeInvalidInput
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Code extracts the rejection code from err, or "" when err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
