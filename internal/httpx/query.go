package httpx

import (
	"strconv"
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ParamUUID reads a UUID path parameter.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("invalid_id"))
	}
	return id, nil
}

// QueryUUID reads an optional UUID query parameter.
func QueryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_id")+" ("+name+")")
	}
	return &id, nil
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(c *fiber.Ctx, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_format")+" ("+name+")")
	}
	return &b, nil
}

// QueryIntRange reads an integer query parameter bounded by [min, max].
func QueryIntRange(c *fiber.Ctx, name string, def, min, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("validation_error")+" ("+name+")")
	}
	return v, nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter.
func QueryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := clock.ParseDate(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("date_invalid")+" ("+name+")")
	}
	return &d, nil
}

// ParseDateField parses a required YYYY-MM-DD body field.
func ParseDateField(value, name string) (time.Time, error) {
	d, err := clock.ParseDate(value)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("date_invalid")+" ("+name+")")
	}
	return d, nil
}

// ParseOptionalDateField parses an optional YYYY-MM-DD body field.
func ParseOptionalDateField(value *string, name string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := ParseDateField(*value, name)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
