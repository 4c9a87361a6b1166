package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Authentication taxonomy.
const (
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeInvalidAPIKey         Code = "INVALID_API_KEY"
	CodeAccountDeactivated    Code = "ACCOUNT_DEACTIVATED"
	CodeEmailNotConfirmed     Code = "EMAIL_NOT_CONFIRMED"
	CodeEmailAlreadyExists    Code = "EMAIL_ALREADY_EXISTS"
	CodeInvalidOrExpiredToken Code = "INVALID_OR_EXPIRED_TOKEN"
	CodeEmailConfirmation     Code = "EMAIL_CONFIRMATION_FAILED"
	CodeNoTokenProvided       Code = "NO_TOKEN_PROVIDED"
	CodeInvalidBearerToken    Code = "INVALID_BEARER_TOKEN"
	CodeTokenExpired          Code = "TOKEN_EXPIRED"
	CodeUnknownAuth           Code = "UNKNOWN_AUTH_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},

	CodeInvalidCredentials: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid email or password",
	},
	CodeInvalidAPIKey: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid api key",
	},
	CodeAccountDeactivated: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "account is deactivated",
	},
	CodeEmailNotConfirmed: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "email address has not been confirmed",
	},
	CodeEmailAlreadyExists: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "email already exists",
	},
	CodeInvalidOrExpiredToken: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid or expired token",
	},
	CodeEmailConfirmation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "email confirmation failed",
	},
	CodeNoTokenProvided: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "no token provided",
	},
	CodeInvalidBearerToken: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid bearer token",
	},
	CodeTokenExpired: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "token expired",
	},
	CodeUnknownAuth: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "unknown authentication error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf is New with fmt-style formatting of the message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
