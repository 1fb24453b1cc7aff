package warehouse

import (
	"errors"
	"slices"
	"testing"

	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func fields(names ...string) []models.TemplateField {
	out := make([]models.TemplateField, len(names))
	for i, n := range names {
		out[i] = models.TemplateField{Name: n, Label: n, Required: true, Order: i + 1}
	}
	return out
}

func TestBuildAppliesDefaults(t *testing.T) {
	req := TemplateRequest{Fields: fields("sor", "oszlop", "szint"), CodeFormat: " {sor}-{oszlop}-{szint} "}
	tpl, err := req.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tpl.Separator != "-" || !tpl.AutoUppercase || !tpl.ZeroPadding {
		t.Errorf("defaults = %+v", tpl)
	}
	if tpl.CodeFormat != "{sor}-{oszlop}-{szint}" {
		t.Errorf("code format = %q", tpl.CodeFormat)
	}

	off := false
	sep := "/"
	req = TemplateRequest{Fields: fields("sor"), CodeFormat: "{sor}", Separator: &sep, ZeroPadding: &off}
	tpl, err = req.Build()
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Separator != "/" || tpl.ZeroPadding {
		t.Errorf("overrides = %+v", tpl)
	}
}

func TestValidateTemplateRejects(t *testing.T) {
	dup := fields("sor", "szint")
	dup[1].Order = 1

	tests := []struct {
		name string
		tpl  models.BinTemplate
	}{
		{"no fields", models.BinTemplate{CodeFormat: "{sor}"}},
		{"unknown placeholder", models.BinTemplate{Fields: fields("sor"), CodeFormat: "{sor}-{polc}"}},
		{"no placeholder", models.BinTemplate{Fields: fields("sor"), CodeFormat: "A"}},
		{"duplicate name", models.BinTemplate{Fields: fields("sor", "sor"), CodeFormat: "{sor}"}},
		{"duplicate order", models.BinTemplate{Fields: dup, CodeFormat: "{sor}-{szint}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(&tt.tpl)
			var fe *fiber.Error
			if !errors.As(err, &fe) || fe.Code != fiber.StatusUnprocessableEntity {
				t.Fatalf("err = %v, want 422", err)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{sor}-{oszlop}/{szint}")
	if !slices.Equal(got, []string{"sor", "oszlop", "szint"}) {
		t.Errorf("placeholders = %q", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total int64
		want        float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}
