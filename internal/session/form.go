package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AuthForm is the staging object for login and registration input.
// It is reset to its zero value after every successful submit.
type AuthForm struct {
	Username string `validate:"required,max=100"`
	Password string `validate:"required,max=128"`
	Email    string `validate:"omitempty,email,max=255"`
	Role     Role
}

// Reset clears every field
func (f *AuthForm) Reset() {
	*f = AuthForm{}
}

// IsZero reports whether the form is empty
func (f AuthForm) IsZero() bool {
	return f == AuthForm{}
}

var validate = validator.New()

func validateLogin(f *AuthForm) error {
	return validationError(validate.Struct(f))
}

func validateRegister(f *AuthForm) error {
	if err := validateLogin(f); err != nil {
		return err
	}
	return validationError(validate.Var(f.Email, "required,email"), "email")
}

// validationError turns validator output into a short sentence naming the
// first offending field. field overrides the name for Var checks.
func validationError(err error, field ...string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	name := strings.ToLower(fe.Field())
	if len(field) > 0 {
		name = field[0]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	case "email":
		return fmt.Errorf("%s must be a valid email address", name)
	case "max":
		return fmt.Errorf("%s must be at most %s characters", name, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", name)
	}
}
