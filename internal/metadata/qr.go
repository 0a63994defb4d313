package metadata

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/tourerr"
)

const QRFileName = "location_qr.png"

// GeoURI is the RFC 5870 link for the record's coordinates, labeled with
// its address.
func GeoURI(rec source.Record) string {
	uri := fmt.Sprintf("geo:%s,%s", formatCoord(rec.Latitude), formatCoord(rec.Longitude))
	if rec.Address != "" {
		uri += "?q=" + url.QueryEscape(rec.Address)
	}
	return uri
}

// WriteLocationQR stores a QR code of GeoURI next to the frames, so a
// printed contact sheet can be scanned back to the property.
func WriteLocationQR(rec source.Record, dir string) (string, error) {
	path := filepath.Join(dir, QRFileName)
	if err := qrcode.WriteFile(GeoURI(rec), qrcode.Medium, 256, path); err != nil {
		return path, tourerr.IO("write qr", path, err)
	}
	return path, nil
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
