package pipeline

import (
	"fmt"
	"time"
)

// DefaultExportPrefix names exported files: double-diamond-<unix-millis>.svg.
const DefaultExportPrefix = "double-diamond"

// ExportFilename returns the timestamped file name of an exported artifact.
func ExportFilename(prefix string, t time.Time, format string) string {
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	return fmt.Sprintf("%s-%d.%s", prefix, t.UnixMilli(), format)
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}
