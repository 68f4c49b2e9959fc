package shared

import (
	"net/http"
	"strconv"
	"strings"
)

// ListFilters carries the standard list query parameters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// ParseListFilters reads pagination and search parameters from the request.
func ParseListFilters(r *http.Request) ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 25
	}
	dir := strings.ToLower(r.URL.Query().Get("dir"))
	if dir != "desc" {
		dir = "asc"
	}
	return ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: dir,
	}
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}
