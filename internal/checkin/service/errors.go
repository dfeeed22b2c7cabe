package service

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was refused.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers missing or malformed fields, detected before any storage access.
	KindValidation
	// KindAuthorization covers business-rule rejections such as an expired key or a device mismatch.
	KindAuthorization
	// KindConflict is returned when the binding already belongs to another party.
	KindConflict
	// KindStorage wraps durable read/write failures. The message never exposes the cause.
	KindStorage
	// KindNotFound is returned when there is nothing to act on.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the structured result of a refused operation. Msg is safe to show
// to callers; Err holds the underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func authorizationError(msg string) error {
	return &Error{Kind: KindAuthorization, Msg: msg}
}

func conflictError(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func storageError(msg string, cause error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: cause}
}

// Caller-facing messages.
const (
	MsgMissingLoginFields  = "identity and 4-digit key are required"
	MsgMissingLogoutFields = "identity and current key are required"
	MsgMalformedKey        = "key must be 4 digits"
	MsgKeyInvalid          = "key invalid or expired"
	MsgIdentityElsewhere   = "identity already bound to another device"
	MsgNotOnBoundDevice    = "not logged in from bound device"
	MsgLoginFirst          = "must log in from bound device first"
	MsgNoCheckIn           = "no check-in record found"
	MsgNoBinding           = "no binding exists for identity"
	MsgMissingIdentity     = "identity is required"
	MsgTryAgain            = "operation failed, please try again"
)

// DeviceClaimedMsg names the identity currently holding a device.
func DeviceClaimedMsg(holder string) string {
	return fmt.Sprintf("device already bound to identity %s, cannot log in another identity", holder)
}
