package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts page/limit query parameters from the echo
// context, clamping them to sane bounds.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns the number of pages needed for total rows.
func (p Params) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	pages := total / p.Limit
	if total%p.Limit != 0 {
		pages++
	}
	return pages
}

// Meta is the pagination block included in list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalRows  int `json:"total_rows"`
	TotalPages int `json:"total_pages"`
}

// Response wraps a paginated API response.
type Response struct {
	Message    string      `json:"message"`
	Pagination Meta        `json:"pagination"`
	Data       interface{} `json:"data"`
}

// NewResponse builds the standard list response envelope.
func NewResponse(data interface{}, p Params, total int) *Response {
	return &Response{
		Message: "data fetched successfully",
		Pagination: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			TotalRows:  total,
			TotalPages: p.TotalPages(total),
		},
		Data: data,
	}
}
