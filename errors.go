package zeen

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodePasswordNotReadable = "PASSWORD_NOT_READABLE"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeTokenAction         = "TOKEN_ACTION_MISMATCH"
	TextCodeEmailTaken          = "EMAIL_TAKEN"
	TextCodeUsernameTaken       = "USERNAME_TAKEN"
	TextCodeNoDefaultRole       = "NO_DEFAULT_ROLE"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUserRequired is returned by graph and blog calls given a nil user
var ErrUserRequired = goerrors.New("user is required", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is returned for wrong credentials
var ErrMismatchedHashAndPassword = goerrors.New("mismatched hash and password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrPasswordNotReadable is returned when reading back a plaintext password.
var ErrPasswordNotReadable = goerrors.New("password is not a readable attribute", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordNotReadable)

// ErrForbidden is returned when an identity lacks a required permission
var ErrForbidden = goerrors.New("insufficient permissions", goerrors.CategoryAuth).
	WithCode(goerrors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrTokenExpired is returned for tokens past their expiration
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens we can not parse or verify
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenActionMismatch is returned when a token is used for the wrong action
var ErrTokenActionMismatch = goerrors.New("token was issued for a different action", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenAction)

// ErrEmailTaken is returned when an email already belongs to an account
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrUsernameTaken is returned when a username is already in use
var ErrUsernameTaken = goerrors.New("username already in use", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode(TextCodeUsernameTaken)

// ErrNoDefaultRole means roles were not seeded before registering users
var ErrNoDefaultRole = goerrors.New("no default role found, run InsertRoles first", goerrors.CategoryInternal).
	WithTextCode(TextCodeNoDefaultRole)

// ErrUnableToDecodeSession unable to decode JWT from session token
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) || goerrors.Is(err, jwt.ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}
