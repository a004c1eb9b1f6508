package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gbd-solar/solartech-api/policy"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorKind classifies a service failure for the transport layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindUnauthenticated
	KindInvalidCredential
	KindPermissionDenied
	KindNotFound
	KindInvalidInput
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is returned by every service operation that fails.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		cause := e.Err.Error()
		if strings.HasSuffix(cause, e.Message) {
			return cause
		}
		return fmt.Sprintf("%s: %s", e.Message, cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == "" && other.Kind == e.Kind
}

// Sentinels for errors.Is checks on kind.
var (
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential}
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInternal          = &Error{Kind: KindInternal}
)

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: what + " not found"}
}

func invalidInput(code, message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: code, Message: message}
}

func conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// denied converts a policy rejection; other errors from policy are input errors.
func denied(err error) *Error {
	if errors.Is(err, policy.ErrDenied) {
		return &Error{Kind: KindPermissionDenied, Code: "FORBIDDEN", Message: strings.TrimPrefix(err.Error(), policy.ErrDenied.Error()+": "), Err: err}
	}
	return invalidInput("VALIDATION_ERROR", err.Error())
}

// lookupError maps a failed point read to NotFound or Internal.
func lookupError(what string, err error) *Error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return internal("failed to load "+what, err)
}

// isUniqueViolation detects duplicate keys across drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
