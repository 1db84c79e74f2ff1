package service

import (
	"regexp"
	"slices"
	"strings"

	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/repository"
)

const (
	defaultPageSize  = 10
	defaultSortField = "name"
	defaultSortOrder = "asc"
)

// ListParams carries the raw search/sort/page query inputs for a listing
// endpoint. Search is "field:value", Sort is "field:asc|desc"; zero
// PageSize/PageNumber means "use defaults".
type ListParams struct {
	Search     string
	Sort       string
	PageSize   int
	PageNumber int
}

// Page is one slice of a filtered listing plus its pagination metadata.
// TotalPages is computed over the filtered count, not the table total.
type Page[T any] struct {
	PageNumber      int
	PageSize        int
	Count           int
	TotalPages      int
	HasPreviousPage bool
	HasNextPage     bool
	Data            []T
}

var (
	sortPattern      = regexp.MustCompile(`^(?i)(name|email):(asc|desc)$`)
	searchKeyPattern = regexp.MustCompile(`^[\w\s]+$`)
)

// buildListQuery validates paging and interprets the search and sort
// expressions against the fields the caller allows. Malformed expressions
// fall back to "no filter" and the default sort rather than erroring;
// negative paging values are a client error.
func buildListQuery(p ListParams, searchFields []string) (repository.ListQuery, int, int, error) {
	if p.PageSize < 0 || p.PageNumber < 0 {
		return repository.ListQuery{}, 0, 0, domain.ErrInvalidPage
	}

	pageSize := p.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	pageNumber := p.PageNumber
	if pageNumber == 0 {
		pageNumber = 1
	}

	q := repository.ListQuery{
		SortField: defaultSortField,
		SortOrder: defaultSortOrder,
		Limit:     pageSize,
		Offset:    (pageNumber - 1) * pageSize,
	}

	if field, key, ok := parseSearch(p.Search, searchFields); ok {
		q.SearchField = field
		q.SearchKey = key
	}
	if m := sortPattern.FindStringSubmatch(p.Sort); m != nil {
		q.SortField = strings.ToLower(m[1])
		q.SortOrder = strings.ToLower(m[2])
	}

	return q, pageSize, pageNumber, nil
}

func parseSearch(s string, fields []string) (field, key string, ok bool) {
	if s == "" {
		return "", "", false
	}
	field, key, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	field = strings.ToLower(field)
	if !slices.Contains(fields, field) {
		return "", "", false
	}
	if !searchKeyPattern.MatchString(key) {
		return "", "", false
	}
	return field, key, true
}

func newPage[T any](data []T, count, pageSize, pageNumber int) Page[T] {
	totalPages := (count + pageSize - 1) / pageSize
	return Page[T]{
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		Count:           len(data),
		TotalPages:      totalPages,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
		Data:            data,
	}
}
