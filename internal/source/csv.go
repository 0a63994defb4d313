package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ivlev/earthtour/internal/tourerr"
)

const (
	ColLatitude             = "latitude"
	ColLongitude            = "longitude"
	ColPermitIssueDate      = "reroof_permit_issue_date"
	ColPermitExpirationDate = "reroof_permit_expiration_date"
	ColReroofType           = "reroof_type"
)

// CSVSource loads every row of a CSV file with a header line up front.
type CSVSource struct {
	path    string
	records []Record
}

// NewCSVSource reads and validates the whole file at path.
func NewCSVSource(path string, addressColumn string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tourerr.Input("open csv", path, err)
	}
	defer f.Close()

	records, err := ReadCSV(f, addressColumn)
	if err != nil {
		if te, ok := err.(*tourerr.Error); ok && te.Path == "" {
			te.Path = path
		}
		return nil, err
	}
	return &CSVSource{path: path, records: records}, nil
}

func (s *CSVSource) Records() []Record {
	return s.records
}

func (s *CSVSource) Path() string {
	return s.path
}

// ReadCSV parses the header and rows from r. The latitude, longitude and
// address columns are required; permit columns are picked up when all three
// are present.
func ReadCSV(r io.Reader, addressColumn string) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, tourerr.Inputf("read csv", "", "empty input")
	}
	if err != nil {
		return nil, tourerr.Input("read csv", "", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[h] = i
	}

	for _, name := range []string{ColLatitude, ColLongitude, addressColumn} {
		if _, ok := cols[name]; !ok {
			return nil, tourerr.Inputf("read csv", "", "missing required column %q", name)
		}
	}

	_, hasIssue := cols[ColPermitIssueDate]
	_, hasExp := cols[ColPermitExpirationDate]
	_, hasType := cols[ColReroofType]
	hasPermit := hasIssue && hasExp && hasType

	field := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for n := 0; ; n++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, tourerr.Input("read csv", "", err)
		}

		lat, err := parseCoord(field(row, ColLatitude), -90, 90)
		if err != nil {
			return nil, tourerr.Inputf("read csv", "", "row %d: latitude: %v", n, err)
		}
		lon, err := parseCoord(field(row, ColLongitude), -180, 180)
		if err != nil {
			return nil, tourerr.Inputf("read csv", "", "row %d: longitude: %v", n, err)
		}

		rec := Record{
			Row:       n,
			Latitude:  lat,
			Longitude: lon,
			Address:   field(row, addressColumn),
		}
		if hasPermit {
			rec.Permit = &Permit{
				IssueDate:      field(row, ColPermitIssueDate),
				ExpirationDate: field(row, ColPermitExpirationDate),
				Type:           field(row, ColReroofType),
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, tourerr.Inputf("read csv", "", "no data rows")
	}
	return records, nil
}

func parseCoord(s string, min, max float64) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < min || v > max || v != v {
		return 0, fmt.Errorf("%v out of range [%v, %v]", v, min, max)
	}
	return v, nil
}
