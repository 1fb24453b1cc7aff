package httpx

import (
	"errors"
	"strings"

	"wms-backend/internal/i18n"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseBody decodes the JSON body into out and checks its validate tags.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, i18n.T("invalid_body"))
	}
	return Validate(out)
}

// Validate runs struct tag validation and renders failures as 422.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("validation_error"))
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldName(fe.Namespace())+" ("+fe.Tag()+")")
	}
	return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("validation_error")+" "+strings.Join(fields, ", "))
}

// fieldName drops the root struct name from a validator namespace.
func fieldName(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// TrimPtr trims *s and turns blank strings into nil.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
