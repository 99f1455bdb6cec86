package data

import (
	"strings"

	"github.com/KamilDonda/MovieRecommender/internal/validator"
)

// Filters holds the paging and sorting parameters shared by list endpoints.
// SortSafelist is set by the handler and names the only sort values the
// endpoint accepts; everything else fails validation, which keeps the sort
// column interpolation in the SQL query safe.
type Filters struct {
	Page         int
	PageSize     int
	Sort         string
	SortSafelist []string
}

// ValidateFilters records any problems with the filter parameters in v.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")

	v.Check(validator.PermittedValue(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
}

// sortColumn returns the bare column name for the requested sort. It panics
// on a value missing from the safelist: validation runs first, so reaching
// the panic means a handler interpolated unchecked client input.
func (f Filters) sortColumn() string {
	for _, safeValue := range f.SortSafelist {
		if f.Sort == safeValue {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	panic("unsafe sort parameter: " + f.Sort)
}

// sortDirection maps a leading hyphen to a descending sort.
func (f Filters) sortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f Filters) limit() int {
	return f.PageSize
}

func (f Filters) offset() int {
	// The validation caps on Page and PageSize keep this multiplication far
	// away from integer overflow.
	return (f.Page - 1) * f.PageSize
}

// Metadata describes the position of a returned page within the full result
// set. A search that matches nothing yields the zero value, which marshals
// to an empty JSON object.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}

	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     (totalRecords + pageSize - 1) / pageSize,
		TotalRecords: totalRecords,
	}
}
