package zeen

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of password with a fresh salt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "failed to hash password")
	}
	return string(hash), nil
}

// ComparePasswordAndHash returns nil when password produced hash.
// A wrong password is ErrMismatchedHashAndPassword, a broken hash is
// reported as is.
func ComparePasswordAndHash(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatchedHashAndPassword
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unreadable password hash")
	}
}

// DummyPasswordHash hashes a random secret. Login compares against it
// when no account matches, so unknown emails cost the same bcrypt round.
func DummyPasswordHash() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), passwordCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
