package contact

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// contactemail mirrors the client-side form check.
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks required fields first, then the email pattern.
func Validate(sub *Submission) error {
	err := validate.Struct(sub)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindUserInput, Key: MsgInvalidBody, Err: err}
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &Error{Kind: KindUserInput, Key: MsgMissingFields, Err: err}
		}
	}
	return &Error{Kind: KindUserInput, Key: MsgInvalidEmail, Err: err}
}
