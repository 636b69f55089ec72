// Package apperr defines the closed set of failures returned inside a result.Result.
//
// Every failure is an errx.ErrorX carrying a stable code, an errx type and
// optional structured details that are safe to log and to serialize for API clients.
package apperr

import (
	"errors"
	"fmt"

	"github.com/code19m/errx"
)

// Kind is the stable name of a failure.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindNotFound   Kind = "NotFoundError"
	KindDatabase   Kind = "DatabaseError"
	KindCache      Kind = "CacheError"
	KindStorage    Kind = "StorageError"
	KindInternal   Kind = "InternalError"
)

// Error codes.
const (
	CodeValidation = "VALIDATION_FAILED"
	CodeNotFound   = "NOT_FOUND"
	CodeDatabase   = "DATABASE_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeStorage    = "STORAGE_ERROR"
)

//nolint:gochecknoglobals // static lookup
var kindByCode = map[string]Kind{
	CodeValidation: KindValidation,
	CodeNotFound:   KindNotFound,
	CodeDatabase:   KindDatabase,
	CodeCache:      KindCache,
	CodeStorage:    KindStorage,
}

// Validation reports malformed input. Never retryable.
func Validation(msg string, details errx.D) error {
	return errx.New(
		msg,
		errx.WithCode(CodeValidation),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(details),
	)
}

// ValidationFields reports malformed input with a per-field description map.
func ValidationFields(msg string, fields errx.M) error {
	return errx.New(
		msg,
		errx.WithCode(CodeValidation),
		errx.WithType(errx.T_Validation),
		errx.WithFields(fields),
	)
}

// NotFound reports an absent or soft-deleted entity.
func NotFound(resource, identifier string) error {
	msg := resource + " not found"
	if identifier != "" {
		msg = fmt.Sprintf("%s with identifier '%s' not found", resource, identifier)
	}

	return errx.New(
		msg,
		errx.WithCode(CodeNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"resource": resource, "identifier": identifier}),
	)
}

// Database reports a persistence failure. cause may be nil.
func Database(msg string, cause error, details errx.D) error {
	return internal(CodeDatabase, msg, cause, details)
}

// Cache reports a cache failure. Callers on the read path must never escalate it.
func Cache(msg string, cause error, details errx.D) error {
	return internal(CodeCache, msg, cause, details)
}

// Storage reports an object-store failure.
func Storage(msg string, cause error, details errx.D) error {
	return internal(CodeStorage, msg, cause, details)
}

func internal(code, msg string, cause error, details errx.D) error {
	d := make(errx.D, len(details)+1)
	for k, v := range details {
		d[k] = v
	}
	if cause != nil {
		d["error"] = cause.Error()
	}

	return errx.New(
		msg,
		errx.WithCode(code),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(d),
	)
}

// KindOf returns the stable name of err.
func KindOf(err error) Kind {
	var e errx.ErrorX
	if !errors.As(err, &e) {
		return KindInternal
	}
	if k, ok := kindByCode[e.Code()]; ok {
		return k
	}
	return KindInternal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode maps err to an HTTP-style severity code.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 422
	case KindNotFound:
		return 404
	case KindDatabase, KindCache, KindStorage, KindInternal:
		return 500
	default:
		return 500
	}
}

// Payload is the serializable form of a failure.
type Payload struct {
	Name       string            `json:"name"`
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Detail     map[string]any    `json:"detail,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Describe converts err into its serializable form.
func Describe(err error) Payload {
	p := Payload{
		Name:       string(KindOf(err)),
		Message:    err.Error(),
		StatusCode: StatusCode(err),
	}

	var e errx.ErrorX
	if errors.As(err, &e) {
		p.Detail = e.Details()
		p.Fields = e.Fields()
	}
	return p
}
