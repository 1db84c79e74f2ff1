package handler

import (
	"net/http"
	"strconv"

	"github.com/sentrabank/sentra-api/internal/service"
)

// listEnvelope is the wire shape shared by every paginated listing.
type listEnvelope struct {
	PageNumber      int  `json:"page_number"`
	PageSize        int  `json:"page_size"`
	Count           int  `json:"count"`
	TotalPages      int  `json:"total_pages"`
	HasPreviousPage bool `json:"has_previous_page"`
	HasNextPage     bool `json:"has_next_page"`
	Data            any  `json:"data"`
}

func newListEnvelope[T any](page *service.Page[T], data any) listEnvelope {
	return listEnvelope{
		PageNumber:      page.PageNumber,
		PageSize:        page.PageSize,
		Count:           page.Count,
		TotalPages:      page.TotalPages,
		HasPreviousPage: page.HasPreviousPage,
		HasNextPage:     page.HasNextPage,
		Data:            data,
	}
}

// listParamsFromQuery pulls search/sort/page_size/page_number out of the
// URL. Search and sort are passed through raw; the service decides
// whether their field:value shape is usable.
func listParamsFromQuery(r *http.Request) (service.ListParams, []FieldError) {
	q := r.URL.Query()
	p := service.ListParams{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}

	var errs []FieldError
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "page_size", Message: "must be an integer"})
		} else {
			p.PageSize = n
		}
	}
	if v := q.Get("page_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "page_number", Message: "must be an integer"})
		} else {
			p.PageNumber = n
		}
	}
	return p, errs
}
