package bin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MaxBulkCombinations caps a single bulk generation.
const MaxBulkCombinations = 10000

// RangeSpec is either an explicit value list or an inclusive {start, end}
// range of integers or single letters.
type RangeSpec struct {
	Values []string
	Start  string
	End    string
	IsSpan bool
}

func (r *RangeSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		r.Values = make([]string, 0, len(raw))
		for _, v := range raw {
			s, err := scalar(v)
			if err != nil {
				return err
			}
			r.Values = append(r.Values, s)
		}
		return nil
	}

	var span struct {
		Start json.RawMessage `json:"start"`
		End   json.RawMessage `json:"end"`
	}
	if err := json.Unmarshal(data, &span); err != nil {
		return err
	}
	if span.Start == nil || span.End == nil {
		return fmt.Errorf("range needs start and end")
	}
	var err error
	if r.Start, err = scalar(span.Start); err != nil {
		return err
	}
	if r.End, err = scalar(span.End); err != nil {
		return err
	}
	r.IsSpan = true
	return nil
}

// scalar renders a JSON string or number as a string.
func scalar(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("range value must be a string or number")
	}
	return n.String(), nil
}

// Expand lists the values of the range.
func (r RangeSpec) Expand(field string) ([]string, error) {
	if !r.IsSpan {
		return r.Values, nil
	}
	invalidSpec := fiber.NewError(fiber.StatusBadRequest, i18n.Tf("bulk_invalid_range_spec", "field", field))
	invalidRange := fiber.NewError(fiber.StatusBadRequest, i18n.Tf("bulk_invalid_range", "field", field))

	if start, err := strconv.ParseInt(r.Start, 10, 64); err == nil {
		end, err := strconv.ParseInt(r.End, 10, 64)
		if err != nil {
			return nil, invalidSpec
		}
		if start > end {
			return nil, invalidRange
		}
		// end-start in uint64 is exact for any int64 pair with start <= end
		span := uint64(end) - uint64(start)
		if span >= MaxBulkCombinations {
			return nil, tooLarge(span + 1)
		}
		out := make([]string, 0, span+1)
		for i := uint64(0); i <= span; i++ {
			out = append(out, strconv.FormatInt(start+int64(i), 10))
		}
		return out, nil
	}

	s, e := []rune(r.Start), []rune(r.End)
	if len(s) != 1 || len(e) != 1 {
		return nil, invalidSpec
	}
	if !sameLetterCase(s[0], e[0]) {
		return nil, invalidSpec
	}
	if s[0] > e[0] {
		return nil, invalidRange
	}
	out := make([]string, 0, e[0]-s[0]+1)
	for c := s[0]; c <= e[0]; c++ {
		out = append(out, string(c))
	}
	return out, nil
}

// sameLetterCase reports whether a and b are both A-Z or both a-z.
func sameLetterCase(a, b rune) bool {
	upper := func(r rune) bool { return r >= 'A' && r <= 'Z' }
	lower := func(r rune) bool { return r >= 'a' && r <= 'z' }
	return (upper(a) && upper(b)) || (lower(a) && lower(b))
}

// tooLarge reports count combinations; a count of 0 means it overflowed uint64.
func tooLarge(count uint64) error {
	shown := strconv.FormatUint(count, 10)
	if count == 0 {
		shown = "18446744073709551616"
	}
	return fiber.NewError(fiber.StatusBadRequest, i18n.Tf("bulk_generation_too_large",
		"count", shown, "max", strconv.Itoa(MaxBulkCombinations)))
}

type GeneratedBin struct {
	Code          string
	StructureData models.StructureData
}

// FormatValue applies the template's casing and padding rules to one value.
func FormatValue(tmpl *models.BinTemplate, v string) string {
	if tmpl.AutoUppercase && isAlpha(v) {
		v = i18n.Upper(v)
	}
	if tmpl.ZeroPadding && isDigits(v) && len(v) < 2 {
		v = "0" + v
	}
	return v
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RenderCode substitutes {field} placeholders of format with data.
func RenderCode(format string, data models.StructureData) string {
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(format)
}

// Generate expands ranges over the template fields in field order and
// renders one code per combination.
func Generate(tmpl *models.BinTemplate, ranges map[string]RangeSpec) ([]GeneratedBin, error) {
	fields := slices.Clone(tmpl.Fields)
	slices.SortFunc(fields, func(a, b models.TemplateField) int { return a.Order - b.Order })

	values := make([][]string, 0, len(fields))
	total := 1
	for _, f := range fields {
		spec, ok := ranges[f.Name]
		if !ok {
			return nil, fiber.NewError(fiber.StatusBadRequest, i18n.Tf("bulk_missing_range", "field", f.Name))
		}
		vals, err := spec.Expand(f.Name)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			return nil, nil
		}
		total *= len(vals)
		if total > MaxBulkCombinations {
			return nil, tooLarge(uint64(total))
		}
		values = append(values, vals)
	}

	out := make([]GeneratedBin, 0, total)
	idx := make([]int, len(fields))
	for {
		data := make(models.StructureData, len(fields))
		for i, f := range fields {
			data[f.Name] = FormatValue(tmpl, values[i][idx[i]])
		}
		out = append(out, GeneratedBin{Code: RenderCode(tmpl.CodeFormat, data), StructureData: data})

		// advance the rightmost index, odometer style
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(values[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return out, nil
}
