// Package apperr carries the error taxonomy shared by the store, the services and the
// HTTP boundary. Callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredential
	KindInvalidToken
	KindExpired
	KindAccountNotFound
	KindBadPassword
	KindInvalidProductID
	KindProductUnavailable
	KindForbidden
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindValidation:         "validation",
	KindConflict:           "conflict",
	KindInvalidCredential:  "invalid_credential",
	KindInvalidToken:       "invalid_token",
	KindExpired:            "expired",
	KindAccountNotFound:    "account_not_found",
	KindBadPassword:        "bad_password",
	KindInvalidProductID:   "invalid_product_id",
	KindProductUnavailable: "product_unavailable",
	KindForbidden:          "forbidden",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure. Message is safe to show to clients; Err is not.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Field != "":
		msg = fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	case e.Message != "":
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation names the first field that violated a constraint.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Conflict(field, message string, err error) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
