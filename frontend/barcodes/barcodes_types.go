package barcodes

import (
	"github.com/KocBilge/barcode/frontend/listview"
	"github.com/KocBilge/barcode/frontend/shared/nav"
)

// ActiveSectionCookie remembers the section new scans are filed under.
const ActiveSectionCookie = "active_section"

// Replies of POST /scan.
const (
	ReplyOK             = "OK"
	ReplyAlreadyExists  = "ALREADY EXISTS"
	ReplyInvalidSection = "INVALID SECTION"
	ReplyMissingCode    = "MISSING CODE"
)

type SectionCard struct {
	Name string
	View listview.SectionView
}

type PageData struct {
	Nav      nav.TopNavData
	Status   string
	Sections []string
	Cards    []SectionCard
	Recent   []listview.RecentEntry
	Year     int
}

type scanRequest struct {
	Code    string `json:"code"`
	Section string `json:"section"`
}

// latestRecord is the /get_latest_barcodes entry; a nil Timestamp is published as null.
type latestRecord struct {
	Code      string  `json:"code"`
	Timestamp *string `json:"timestamp"`
}
