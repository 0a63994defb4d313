package director

import (
	"path/filepath"
	"strings"
)

// OutputPath is the KML path for an input file: the override when given,
// otherwise the input path with its extension swapped for .kml.
func OutputPath(inputPath, override string) string {
	if override != "" {
		return override
	}
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".kml"
}
