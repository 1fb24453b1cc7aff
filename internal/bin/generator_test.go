package bin

import (
	"encoding/json"
	"errors"
	"testing"

	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func testTemplate() *models.BinTemplate {
	return &models.BinTemplate{
		Fields: []models.TemplateField{
			{Name: "szint", Label: "Szint", Required: true, Order: 3},
			{Name: "sor", Label: "Sor", Required: true, Order: 1},
			{Name: "oszlop", Label: "Oszlop", Required: true, Order: 2},
		},
		CodeFormat:    "{sor}-{oszlop}-{szint}",
		Separator:     "-",
		AutoUppercase: true,
		ZeroPadding:   true,
	}
}

func parseRanges(t *testing.T, raw string) map[string]RangeSpec {
	t.Helper()
	var ranges map[string]RangeSpec
	if err := json.Unmarshal([]byte(raw), &ranges); err != nil {
		t.Fatalf("unmarshal ranges: %v", err)
	}
	return ranges
}

func TestGenerateCartesianInFieldOrder(t *testing.T) {
	ranges := parseRanges(t, `{
		"sor": ["a", "b"],
		"oszlop": {"start": 1, "end": 3},
		"szint": [1]
	}`)

	bins, err := Generate(testTemplate(), ranges)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{"A-01-01", "A-02-01", "A-03-01", "B-01-01", "B-02-01", "B-03-01"}
	if len(bins) != len(want) {
		t.Fatalf("got %d codes, want %d", len(bins), len(want))
	}
	for i, w := range want {
		if bins[i].Code != w {
			t.Errorf("code[%d] = %s, want %s", i, bins[i].Code, w)
		}
	}
	if bins[0].StructureData["sor"] != "A" || bins[0].StructureData["oszlop"] != "01" {
		t.Errorf("unexpected structure data: %v", bins[0].StructureData)
	}
}

func TestGenerateLetterSpan(t *testing.T) {
	ranges := parseRanges(t, `{"sor": {"start": "a", "end": "c"}, "oszlop": ["10"], "szint": ["1"]}`)
	bins, err := Generate(testTemplate(), ranges)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(bins) != 3 || bins[2].Code != "C-10-01" {
		t.Fatalf("unexpected codes: %+v", bins)
	}
}

func TestGenerateWithoutFormatting(t *testing.T) {
	tmpl := testTemplate()
	tmpl.AutoUppercase = false
	tmpl.ZeroPadding = false
	ranges := parseRanges(t, `{"sor": ["a"], "oszlop": [5], "szint": [1]}`)
	bins, err := Generate(tmpl, ranges)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if bins[0].Code != "a-5-1" {
		t.Fatalf("code = %s, want a-5-1", bins[0].Code)
	}
}

func TestGenerateMissingRange(t *testing.T) {
	ranges := parseRanges(t, `{"sor": ["A"], "oszlop": [1]}`)
	_, err := Generate(testTemplate(), ranges)
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGenerateTooLarge(t *testing.T) {
	ranges := parseRanges(t, `{
		"sor": {"start": 1, "end": 100},
		"oszlop": {"start": 1, "end": 100},
		"szint": {"start": 1, "end": 2}
	}`)
	_, err := Generate(testTemplate(), ranges)
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGenerateInvertedRange(t *testing.T) {
	ranges := parseRanges(t, `{"sor": {"start": 5, "end": 1}, "oszlop": [1], "szint": [1]}`)
	if _, err := Generate(testTemplate(), ranges); err == nil {
		t.Fatal("expected error for start > end")
	}
}

func TestGenerateEmptyList(t *testing.T) {
	ranges := parseRanges(t, `{"sor": [], "oszlop": [1], "szint": [1]}`)
	bins, err := Generate(testTemplate(), ranges)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(bins) != 0 {
		t.Fatalf("expected no codes, got %d", len(bins))
	}
}

func TestExpandRejectsSpansBeyondCap(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"full int64", "-9223372036854775808", "9223372036854775807"},
		{"wraps to minus one", "-9223372036854775807", "9223372036854775807"},
		{"one over cap", "1", "10001"},
		{"letters across cases", "A", "z"},
		{"not letters", "[", "_"},
		{"number and letter", "1", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, err := RangeSpec{IsSpan: true, Start: tt.start, End: tt.end}.Expand("sor")
			var fe *fiber.Error
			if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
				t.Fatalf("Expand = %d values, err %v; want 400", len(vals), err)
			}
		})
	}
}

func TestExpandAtCap(t *testing.T) {
	vals, err := RangeSpec{IsSpan: true, Start: "-5000", End: "4999"}.Expand("sor")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(vals) != MaxBulkCombinations || vals[0] != "-5000" || vals[len(vals)-1] != "4999" {
		t.Fatalf("got %d values from %s to %s", len(vals), vals[0], vals[len(vals)-1])
	}

	vals, err = RangeSpec{IsSpan: true, Start: "X", End: "Z"}.Expand("sor")
	if err != nil || len(vals) != 3 || vals[2] != "Z" {
		t.Fatalf("letters = %v, %v", vals, err)
	}
}
