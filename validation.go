package zeen

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

const (
	MinPasswordLength  = 6
	DefaultPhoneRegion = "US"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

var emailRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
	is.Email,
}

var usernameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
	validation.Match(usernamePattern).
		Error("usernames must have only letters, numbers, dots or underscores"),
}

var passwordRules = []validation.Rule{
	validation.Required,
	validation.Length(MinPasswordLength, 128),
}

func equalTo(other, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(message)
		}
		return nil
	})
}

// NormalizePhone parses number and formats it as E.164. Empty input
// stays empty.
func NormalizePhone(number, region string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	parsed, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithMetadata(map[string]any{"phone_number": number})
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"phone_number": number})
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func validationError(err error, message string) error {
	if err == nil {
		return nil
	}
	meta := map[string]any{}
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			meta[field] = fieldErr.Error()
		}
	} else {
		meta["error"] = err.Error()
	}
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(meta)
}
