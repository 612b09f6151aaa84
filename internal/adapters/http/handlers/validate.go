package handlers

import (
	"errors"
	"fmt"
	"strings"

	"donorhub/internal/core/domain"
	"donorhub/internal/pkg/password"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator adds the "password" tag, which bounds a new credential in bytes
// rather than characters so bcrypt never sees more than it accepts.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return password.ValidatePassword(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// parseBody decodes the JSON body into dst and validates its tags. The
// returned error is an InvalidInput domain error with a caller-safe message.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.NewError(domain.KindInvalidInput, "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return domain.NewError(domain.KindInvalidInput, describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ErrInvalidInput.Message
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "password":
			msgs = append(msgs, fmt.Sprintf("%s must be between %d and %d bytes", field, password.MinLength, password.MaxLength))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// jsonName turns a Go field name like NewPassword into new_password
func jsonName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
