package metadata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/tourerr"
)

func permitRecord() source.Record {
	return source.Record{
		Row:       0,
		Latitude:  32.7555,
		Longitude: -97.3308,
		Address:   "123 Main St",
		Permit: &source.Permit{
			IssueDate:      "2016-03-01",
			ExpirationDate: "2016-09-01",
			Type:           "Full",
		},
	}
}

func readRaw(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	return raw
}

func TestWriteNoReroofPolicy(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(permitRecord(), dir, NoReroofPolicy)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	raw := readRaw(t, path)
	if raw["reroof_type"] != NoReroof {
		t.Errorf("Expected sentinel %q, got %v", NoReroof, raw["reroof_type"])
	}
	if _, ok := raw["reroof_permit_issue_date"]; ok {
		t.Error("issue date must be omitted under the no-reroof policy")
	}
	if _, ok := raw["reroof_permit_expiration_date"]; ok {
		t.Error("expiration date must be omitted under the no-reroof policy")
	}
	if raw["address"] != "123 Main St" {
		t.Errorf("unexpected address %v", raw["address"])
	}
}

func TestWriteCopyPermitPolicy(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(permitRecord(), dir, CopyPermit)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if m.ReroofPermitIssueDate == nil || *m.ReroofPermitIssueDate != "2016-03-01" {
		t.Errorf("issue date not verbatim: %v", m.ReroofPermitIssueDate)
	}
	if m.ReroofPermitExpirationDate == nil || *m.ReroofPermitExpirationDate != "2016-09-01" {
		t.Errorf("expiration date not verbatim: %v", m.ReroofPermitExpirationDate)
	}
	if m.ReroofType != "Full" {
		t.Errorf("Expected reroof type Full, got %s", m.ReroofType)
	}
	if m.Latitude != 32.7555 || m.Longitude != -97.3308 {
		t.Errorf("unexpected coordinates %v,%v", m.Latitude, m.Longitude)
	}
}

func TestWriteCopyPermitKeepsEmptyValues(t *testing.T) {
	rec := permitRecord()
	rec.Permit = &source.Permit{}
	path, err := Write(rec, t.TempDir(), CopyPermit)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	raw := readRaw(t, path)
	if v, ok := raw["reroof_permit_issue_date"]; !ok || v != "" {
		t.Errorf("empty permit date should still be written, got %v", v)
	}
}

func TestWriteWithoutPermitColumns(t *testing.T) {
	rec := permitRecord()
	rec.Permit = nil
	_, err := Write(rec, t.TempDir(), CopyPermit)
	if !errors.Is(err, tourerr.ErrInput) {
		t.Errorf("Expected ErrInput, got %v", err)
	}
}

func TestWriteIOError(t *testing.T) {
	_, err := Write(permitRecord(), filepath.Join(t.TempDir(), "missing"), NoReroofPolicy)
	if !errors.Is(err, tourerr.ErrIO) {
		t.Errorf("Expected ErrIO, got %v", err)
	}
}

func TestPolicyFor(t *testing.T) {
	if PolicyFor(true) != NoReroofPolicy || PolicyFor(false) != CopyPermit {
		t.Error("PolicyFor mapping is wrong")
	}
}

func TestGeoURI(t *testing.T) {
	got := GeoURI(permitRecord())
	want := "geo:32.755500,-97.330800?q=123+Main+St"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestWriteLocationQR(t *testing.T) {
	path, err := WriteLocationQR(permitRecord(), t.TempDir())
	if err != nil {
		t.Fatalf("WriteLocationQR failed: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		t.Errorf("QR file not written: %v", err)
	}
}
