package listview

const (
	DefaultPerPage  = 10
	MaxVisiblePages = 5
)

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// Paginate returns records[(page-1)*perPage : page*perPage] clamped to the slice bounds.
func Paginate(records []Record, page, perPage int) []Record {
	page, perPage = normalizePage(page, perPage)
	start := (page - 1) * perPage
	if start >= len(records) {
		return []Record{}
	}
	end := min(start+perPage, len(records))
	return records[start:end]
}

func NumPages(count, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if count <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// BuildPagination describes the page buttons for count records: at most MaxVisiblePages
// buttons centered on page and shifted to stay inside [1, TotalPages]. A page past the
// end is clamped to the last page.
func BuildPagination(count, page, perPage int) Pagination {
	page, perPage = normalizePage(page, perPage)
	total := NumPages(count, perPage)
	if total > 0 {
		page = min(page, total)
	}
	p := Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      count,
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
		Buttons:    make([]PageButton, 0, MaxVisiblePages),
	}
	if total == 0 {
		return p
	}

	startPage := max(1, page-MaxVisiblePages/2)
	endPage := min(total, startPage+MaxVisiblePages-1)
	if endPage-startPage < MaxVisiblePages-1 {
		startPage = max(1, endPage-MaxVisiblePages+1)
	}
	for i := startPage; i <= endPage; i++ {
		p.Buttons = append(p.Buttons, PageButton{Number: i, Active: i == page})
	}
	return p
}
