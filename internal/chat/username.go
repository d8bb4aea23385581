package chat

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z][0-9A-Za-z]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// RegisterRequest is the validated form of an inbound registration.
type RegisterRequest struct {
	Username string `validate:"required,username"`
}

// ValidateUsername reports whether name is a letter followed by zero or more
// ASCII letters or digits.
func ValidateUsername(name string) error {
	if err := validate.Struct(RegisterRequest{Username: name}); err != nil {
		return ErrInvalidUsername
	}
	return nil
}
