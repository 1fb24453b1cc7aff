package warehouse

import (
	"regexp"
	"strings"

	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

type TemplateRequest struct {
	Fields        []models.TemplateField `json:"fields" validate:"required,min=1,dive"`
	CodeFormat    string                 `json:"code_format" validate:"required"`
	Separator     *string                `json:"separator"`
	AutoUppercase *bool                  `json:"auto_uppercase"`
	ZeroPadding   *bool                  `json:"zero_padding"`
}

// Build applies defaults and validates the template.
func (r *TemplateRequest) Build() (models.BinTemplate, error) {
	t := models.BinTemplate{
		Fields:        r.Fields,
		CodeFormat:    strings.TrimSpace(r.CodeFormat),
		Separator:     "-",
		AutoUppercase: true,
		ZeroPadding:   true,
	}
	if r.Separator != nil {
		t.Separator = *r.Separator
	}
	if r.AutoUppercase != nil {
		t.AutoUppercase = *r.AutoUppercase
	}
	if r.ZeroPadding != nil {
		t.ZeroPadding = *r.ZeroPadding
	}
	if err := ValidateTemplate(&t); err != nil {
		return models.BinTemplate{}, err
	}
	return t, nil
}

// Placeholders lists the {field} names used by a code format, in order.
func Placeholders(format string) []string {
	matches := placeholderRe.FindAllStringSubmatch(format, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ValidateTemplate checks field names and orders are unique and every
// placeholder of the code format names a field.
func ValidateTemplate(t *models.BinTemplate) error {
	invalid := func() error {
		return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bin_template_invalid"))
	}

	if len(t.Fields) == 0 {
		return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bin_template_required"))
	}
	if err := httpx.Validate(t); err != nil {
		return err
	}

	names := make(map[string]bool, len(t.Fields))
	orders := make(map[int]bool, len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" || names[f.Name] || f.Order < 1 || orders[f.Order] {
			return invalid()
		}
		names[f.Name] = true
		orders[f.Order] = true
	}

	ph := Placeholders(t.CodeFormat)
	if len(ph) == 0 {
		return invalid()
	}
	for _, p := range ph {
		if !names[p] {
			return invalid()
		}
	}
	return nil
}
