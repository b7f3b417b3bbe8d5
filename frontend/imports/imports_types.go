package imports

// ImportSummary reports the outcome of one CSV import.
type ImportSummary struct {
	Inserted    int
	Skipped     int
	Errors      int
	NewSections []string
}

const (
	columnSection   = "section"
	columnCode      = "code"
	columnTimestamp = "timestamp"
)
