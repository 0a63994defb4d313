package director

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/earthtour/internal/tourerr"
)

const (
	NamespaceKML = "http://earth.google.com/kml/2.2"
	NamespaceGx  = "http://www.google.com/kml/ext/2.2"
)

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	XmlnsGx  string      `xml:"xmlns:gx,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name string  `xml:"name"`
	Open int     `xml:"open"`
	Tour kmlTour `xml:"gx:Tour"`
}

type kmlTour struct {
	Name     string      `xml:"name"`
	Playlist kmlPlaylist `xml:"gx:Playlist"`
}

// kmlPlaylist holds kmlFlyTo and kmlWait values in playback order.
type kmlPlaylist struct {
	Items []any
}

func (p kmlPlaylist) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, item := range p.Items {
		if err := e.Encode(item); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

type kmlFlyTo struct {
	XMLName  xml.Name  `xml:"gx:FlyTo"`
	Duration string    `xml:"gx:duration"`
	Camera   kmlCamera `xml:"Camera"`
}

type kmlCamera struct {
	TimeStamp kmlTimeStamp `xml:"gx:TimeStamp"`
	Latitude  string       `xml:"latitude"`
	Longitude string       `xml:"longitude"`
	Range     string       `xml:"range"`
	Altitude  string       `xml:"altitude"`
	Tilt      string       `xml:"tilt"`
	Heading   string       `xml:"heading"`
}

type kmlTimeStamp struct {
	When string `xml:"when"`
}

type kmlWait struct {
	XMLName  xml.Name `xml:"gx:Wait"`
	Duration string   `xml:"gx:duration"`
}

// MarshalKML renders the tour as an indented UTF-8 KML document.
func MarshalKML(t *Tour) ([]byte, error) {
	items := make([]any, 0, 2*len(t.Steps))
	for _, ins := range t.Instructions() {
		switch ins.Kind {
		case FlyTo:
			items = append(items, kmlFlyTo{
				Duration: formatSeconds(ins.Duration),
				Camera: kmlCamera{
					TimeStamp: kmlTimeStamp{When: ins.When},
					Latitude:  formatFloat(ins.Camera.Latitude),
					Longitude: formatFloat(ins.Camera.Longitude),
					Range:     formatFloat(ins.Camera.Range),
					Altitude:  formatFloat(ins.Camera.Altitude),
					Tilt:      formatFloat(ins.Camera.Tilt),
					Heading:   formatFloat(ins.Camera.Heading),
				},
			})
		case Wait:
			items = append(items, kmlWait{Duration: formatSeconds(ins.Duration)})
		}
	}

	root := kmlRoot{
		Xmlns:   NamespaceKML,
		XmlnsGx: NamespaceGx,
		Document: kmlDocument{
			Name: t.Name,
			Open: 1,
			Tour: kmlTour{
				Name:     t.TourName,
				Playlist: kmlPlaylist{Items: items},
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteKML writes the tour document to path.
func WriteKML(t *Tour, path string) error {
	data, err := MarshalKML(t)
	if err != nil {
		return tourerr.IO("encode kml", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return tourerr.IO("write kml", path, err)
	}
	return nil
}

// ReadKML reads the playlist of a tour document back into instructions.
func ReadKML(path string) ([]Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tourerr.Input("open kml", path, err)
	}
	defer f.Close()

	ins, err := DecodePlaylist(f)
	if err != nil {
		return nil, tourerr.Input("parse kml", path, err)
	}
	return ins, nil
}

// DecodePlaylist walks the gx:Playlist element and returns its FlyTo and
// Wait children in document order.
func DecodePlaylist(r io.Reader) ([]Instruction, error) {
	dec := xml.NewDecoder(r)

	var (
		out        []Instruction
		cur        *Instruction
		inPlaylist bool
		text       strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			text.Reset()
			switch el.Name.Local {
			case "Playlist":
				inPlaylist = true
			case "FlyTo":
				if inPlaylist {
					cur = &Instruction{Kind: FlyTo}
				}
			case "Wait":
				if inPlaylist {
					cur = &Instruction{Kind: Wait}
				}
			}
		case xml.CharData:
			text.Write(el)
		case xml.EndElement:
			if !inPlaylist {
				continue
			}
			value := strings.TrimSpace(text.String())
			text.Reset()
			if el.Name.Local == "Playlist" {
				inPlaylist = false
				continue
			}
			if cur == nil {
				continue
			}
			if err := applyField(cur, el.Name.Local, value); err != nil {
				return nil, err
			}
			if el.Name.Local == "FlyTo" || el.Name.Local == "Wait" {
				out = append(out, *cur)
				cur = nil
			}
		}
	}
	return out, nil
}

func applyField(ins *Instruction, name, value string) error {
	var err error
	switch name {
	case "duration":
		var secs float64
		secs, err = strconv.ParseFloat(value, 64)
		ins.Duration = time.Duration(secs * float64(time.Second))
	case "when":
		ins.When = value
	case "latitude":
		ins.Camera.Latitude, err = strconv.ParseFloat(value, 64)
	case "longitude":
		ins.Camera.Longitude, err = strconv.ParseFloat(value, 64)
	case "range":
		ins.Camera.Range, err = strconv.ParseFloat(value, 64)
	case "altitude":
		ins.Camera.Altitude, err = strconv.ParseFloat(value, 64)
	case "tilt":
		ins.Camera.Tilt, err = strconv.ParseFloat(value, 64)
	case "heading":
		ins.Camera.Heading, err = strconv.ParseFloat(value, 64)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatSeconds always carries a fractional part, "1.0" rather than "1".
func formatSeconds(d time.Duration) string {
	s := formatFloat(d.Seconds())
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
