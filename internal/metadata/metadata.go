package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/tourerr"
)

const (
	FileName = "metadata.json"

	// NoReroof replaces the permit fields when the run is told the
	// properties carry no reroof permits.
	NoReroof = "no reroof"
)

// Policy selects how permit fields are written.
type Policy int

const (
	CopyPermit Policy = iota
	NoReroofPolicy
)

func PolicyFor(noReroof bool) Policy {
	if noReroof {
		return NoReroofPolicy
	}
	return CopyPermit
}

// PropertyMetadata is the per-address sidecar next to the captured frames.
type PropertyMetadata struct {
	Address                    string  `json:"address"`
	Latitude                   float64 `json:"latitude"`
	Longitude                  float64 `json:"longitude"`
	ReroofPermitIssueDate      *string `json:"reroof_permit_issue_date,omitempty"`
	ReroofPermitExpirationDate *string `json:"reroof_permit_expiration_date,omitempty"`
	ReroofType                 string  `json:"reroof_type"`
}

// New builds the metadata for rec. With CopyPermit the record must carry
// permit columns.
func New(rec source.Record, policy Policy) (*PropertyMetadata, error) {
	m := &PropertyMetadata{
		Address:   rec.Address,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
	}

	if policy == NoReroofPolicy {
		m.ReroofType = NoReroof
		return m, nil
	}

	if rec.Permit == nil {
		return nil, tourerr.Inputf("metadata", rec.Address, "row %d has no reroof permit columns", rec.Row)
	}
	issue := rec.Permit.IssueDate
	exp := rec.Permit.ExpirationDate
	m.ReroofPermitIssueDate = &issue
	m.ReroofPermitExpirationDate = &exp
	m.ReroofType = rec.Permit.Type
	return m, nil
}

// Write stores the metadata for rec as dir/metadata.json.
func Write(rec source.Record, dir string, policy Policy) (string, error) {
	path := filepath.Join(dir, FileName)

	m, err := New(rec, policy)
	if err != nil {
		return path, err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return path, tourerr.IO("encode metadata", path, fmt.Errorf("row %d: %w", rec.Row, err))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, tourerr.IO("write metadata", path, err)
	}
	return path, nil
}

// Read loads a metadata file written by Write.
func Read(path string) (*PropertyMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tourerr.Input("read metadata", path, err)
	}
	var m PropertyMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, tourerr.Input("parse metadata", path, err)
	}
	return &m, nil
}
