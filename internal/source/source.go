package source

import (
	"strconv"
	"strings"
)

// Record is one geocoded input row. Records are never modified after load.
type Record struct {
	Row       int // 0-based data row in the input file
	Latitude  float64
	Longitude float64
	Address   string
	Permit    *Permit // nil when the input carries no permit columns
}

// Permit holds the reroof permit columns exactly as they appeared in the input.
type Permit struct {
	IssueDate      string
	ExpirationDate string
	Type           string
}

// Source yields records in input order.
type Source interface {
	Records() []Record
}

// Slice is an in-memory Source.
type Slice []Record

func (s Slice) Records() []Record {
	return s
}

// Select returns the first maxRows records in original order. A maxRows of
// zero or less selects every record. Both the timeline and the capture loop
// go through here so they agree on the row set.
func Select(records []Record, maxRows int) []Record {
	if maxRows <= 0 || maxRows >= len(records) {
		return records
	}
	return records[:maxRows]
}

// DirName is the filesystem-safe directory name for a record: the address
// with spaces turned into underscores. Records without an address fall back
// to their row number.
func (r Record) DirName() string {
	name := strings.ReplaceAll(strings.TrimSpace(r.Address), " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" || name == "." || name == ".." {
		return "row_" + strconv.Itoa(r.Row)
	}
	return name
}
