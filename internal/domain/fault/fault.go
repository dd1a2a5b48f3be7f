package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow error.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindAuthorization    Kind = "AUTHORIZATION"
	KindInvalidState     Kind = "INVALID_STATE"
	KindValidation       Kind = "VALIDATION"
	KindUnavailableAsset Kind = "UNAVAILABLE_ASSET"
)

// Error is a domain error surfaced unchanged to callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NotFound reports a missing record.
func NotFound(entity string, id fmt.Stringer) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// Authorization reports that the actor is not the required party.
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// InvalidState reports a transition attempted from a status that does not permit it.
func InvalidState(entity, status, operation string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("%s in status %q does not permit %s", entity, status, operation),
	}
}

// Validation reports bad domain input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// UnavailableAsset reports an asset that is already sold or rented.
func UnavailableAsset(status string) *Error {
	return &Error{
		Kind:    KindUnavailableAsset,
		Message: fmt.Sprintf("asset is not available for negotiation (availability %q)", status),
	}
}

// Wrap attaches a cause to a domain error kind.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// KindOf extracts the kind of a domain error, if err is one.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsNotFound(err error) bool         { return is(err, KindNotFound) }
func IsAuthorization(err error) bool    { return is(err, KindAuthorization) }
func IsInvalidState(err error) bool     { return is(err, KindInvalidState) }
func IsValidation(err error) bool       { return is(err, KindValidation) }
func IsUnavailableAsset(err error) bool { return is(err, KindUnavailableAsset) }
