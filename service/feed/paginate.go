package feed

// DefaultPageSize is used when a caller passes a page size below 1.
const DefaultPageSize = 10

// Page is one slice of a paginated sequence.
type Page[T any] struct {
	Items     []T  `json:"items"`
	Page      int  `json:"page"`
	PageCount int  `json:"page_count"`
	PageSize  int  `json:"page_size"`
	Total     int  `json:"total"`
	HasPrev   bool `json:"has_prev"`
	HasNext   bool `json:"has_next"`
}

// Paginate returns the requested page of items. Out-of-range pages are
// clamped to the nearest valid one; there is always at least one page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount < 1 {
		pageCount = 1
	}
	page = max(1, min(page, pageCount))

	start := min((page-1)*pageSize, total)
	end := min(page*pageSize, total)
	pageItems := items[start:end:end]
	if pageItems == nil {
		pageItems = []T{}
	}

	return Page[T]{
		Items:     pageItems,
		Page:      page,
		PageCount: pageCount,
		PageSize:  pageSize,
		Total:     total,
		HasPrev:   page > 1,
		HasNext:   page < pageCount,
	}
}

// Ellipsis marks an elided run of page numbers in PageNumbers.
const Ellipsis = 0

// PageNumbers lays out a page bar: the first and last page, the current page
// and its neighbours, with Ellipsis standing in for each skipped run.
func PageNumbers(current, pageCount int) []int {
	if pageCount < 1 {
		pageCount = 1
	}
	current = max(1, min(current, pageCount))

	var out []int
	for p := 1; p <= pageCount; p++ {
		switch {
		case p == 1 || p == pageCount || (p >= current-1 && p <= current+1):
			out = append(out, p)
		case len(out) > 0 && out[len(out)-1] != Ellipsis:
			out = append(out, Ellipsis)
		}
	}
	return out
}
