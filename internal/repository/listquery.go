package repository

import "fmt"

// ListQuery describes the search/sort/page slice a listing endpoint wants.
// Field names are validated against a per-table whitelist before they get
// anywhere near SQL.
type ListQuery struct {
	SearchField string // empty means no filter
	SearchKey   string
	SortField   string
	SortOrder   string // "asc" or "desc"
	Limit       int
	Offset      int
}

func orderClause(field, order string, allowed map[string]string) (string, error) {
	col, ok := allowed[field]
	if !ok {
		return "", fmt.Errorf("orderClause: unknown sort field %q", field)
	}
	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id", col, dir), nil
}

func searchColumn(field string, allowed map[string]string) (string, error) {
	if field == "" {
		return "", nil
	}
	col, ok := allowed[field]
	if !ok {
		return "", fmt.Errorf("searchColumn: unknown search field %q", field)
	}
	return col, nil
}
