package listview

// Record is one scanned code as served by /get_latest_barcodes.
type Record struct {
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
}

// SectionInfo pairs the normalized section id with the name it was stored under.
type SectionInfo struct {
	ID   string
	Name string
}

type Entry struct {
	Index     int
	InputID   string
	Code      string
	Timestamp string
}

type PageButton struct {
	Number int
	Active bool
}

type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Buttons    []PageButton
}

// FilterParams echoes the filter that produced a view so page links can keep it.
type FilterParams struct {
	Query string
	Start string
	End   string
}

type SectionView struct {
	Section    string
	ID         string
	DisplayID  string
	Entries    []Entry
	Pagination Pagination
	Filter     FilterParams
}

type RecentEntry struct {
	Section   string `json:"section"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
}
