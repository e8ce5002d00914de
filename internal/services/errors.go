package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindValidation     ErrorKind = "validation_error"
	KindAuthentication ErrorKind = "not_authenticated"
	KindAuthorization  ErrorKind = "permission_denied"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindThrottled      ErrorKind = "throttled"
)

// Error is the only error type services hand back to handlers on purpose.
// Anything else is an internal failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindThrottled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func AuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func ForbiddenError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func ConflictError(field, message string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

func ThrottledError(message string) *Error {
	return &Error{Kind: KindThrottled, Message: message}
}

// AsError unwraps err into a service error when it is one.
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// denied turns a permission decision into the error the caller sees.
func denied(d permissions.Decision, resource string) error {
	switch d {
	case permissions.DenyUnauthenticated:
		return AuthenticationError("Authentication credentials were not provided")
	case permissions.DenyNotFound:
		return NotFoundError(resource + " not found")
	case permissions.DenyForbidden:
		return ForbiddenError("You do not have permission to perform this action")
	default:
		return nil
	}
}

// notFoundOr maps gorm's missing-row error to a NotFoundError.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(resource + " not found")
	}
	return err
}

// isUniqueViolation recognises unique constraint failures from every driver
// the service can run on.
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

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
