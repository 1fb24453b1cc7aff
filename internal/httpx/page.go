package httpx

import (
	"github.com/gofiber/fiber/v2"
)

// Page is the envelope of every paginated list.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

type PageParams struct {
	Page     int
	PageSize int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Pagination reads page (>= 1) and page_size (1..maxSize).
func Pagination(c *fiber.Ctx, defaultSize, maxSize int) (PageParams, error) {
	page, err := QueryIntRange(c, "page", 1, 1, 1<<30)
	if err != nil {
		return PageParams{}, err
	}
	size, err := QueryIntRange(c, "page_size", defaultSize, 1, maxSize)
	if err != nil {
		return PageParams{}, err
	}
	return PageParams{Page: page, PageSize: size}, nil
}

// Pages is ceil(total/pageSize), never less than 1.
func Pages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func NewPage[T any](items []T, total int64, p PageParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Pages:    Pages(total, p.PageSize),
	}
}
