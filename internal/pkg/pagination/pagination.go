package pagination

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultLimit is the number of items per page when none is given
	DefaultLimit = 10
	// MaxLimit caps the page size
	MaxLimit = 100
)

// Params represents pagination parameters
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Response represents a paginated payload
type Response struct {
	Items interface{} `json:"items"`
	Meta  *Meta       `json:"meta"`
}

// GetParams reads ?page= and ?limit= and clamps them. Garbage falls back to defaults.
func GetParams(c *fiber.Ctx) *Params {
	return Normalize(c.QueryInt("page", 1), c.QueryInt("limit", DefaultLimit))
}

// Normalize clamps page and limit into range and derives the offset
func Normalize(page, limit int) *Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return &Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// TotalPages is ceil(total/limit)
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int64) *Meta {
	pages := TotalPages(total, params.Limit)
	return &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    params.Page < pages,
		HasPrev:    params.Page > 1,
	}
}

// NewResponse wraps one page of items with its metadata
func NewResponse(items interface{}, params *Params, total int64) *Response {
	return &Response{
		Items: items,
		Meta:  GetMeta(params, total),
	}
}
