package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := Pages(tt.total, tt.size); got != tt.want {
			t.Errorf("Pages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestPagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p, err := Pagination(c, 20, 100)
		if err != nil {
			return err
		}
		return c.JSON(NewPage[int](nil, 45, p))
	})

	tests := []struct {
		query    string
		wantCode int
		wantPage Page[int]
	}{
		{"", fiber.StatusOK, Page[int]{Items: []int{}, Total: 45, Page: 1, PageSize: 20, Pages: 3}},
		{"?page=2&page_size=10", fiber.StatusOK, Page[int]{Items: []int{}, Total: 45, Page: 2, PageSize: 10, Pages: 5}},
		{"?page=0", fiber.StatusUnprocessableEntity, Page[int]{}},
		{"?page_size=500", fiber.StatusUnprocessableEntity, Page[int]{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantCode != fiber.StatusOK {
				return
			}
			var got Page[int]
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Total != tt.wantPage.Total || got.Page != tt.wantPage.Page ||
				got.PageSize != tt.wantPage.PageSize || got.Pages != tt.wantPage.Pages || got.Items == nil {
				t.Errorf("page = %+v, want %+v", got, tt.wantPage)
			}
		})
	}
}

func TestTrimPtr(t *testing.T) {
	blank, padded := "  ", " A-01 "
	if TrimPtr(nil) != nil || TrimPtr(&blank) != nil {
		t.Error("nil and blank must map to nil")
	}
	if got := TrimPtr(&padded); got == nil || *got != "A-01" {
		t.Errorf("TrimPtr = %v", got)
	}
}
