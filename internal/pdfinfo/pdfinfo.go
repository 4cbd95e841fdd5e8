// Package pdfinfo inspects generated PDF output without fully parsing it.
//
// Inspection reads the file header and scans for uncompressed page objects.
// This is enough for the output of print backends, which write page
// dictionaries in the clear; documents that hide pages inside object streams
// report zero pages.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotPDF is returned when data does not start with a PDF header.
var ErrNotPDF = errors.New("pdfinfo: not a PDF file")

var header = []byte("%PDF-")

var (
	pageRe     = regexp.MustCompile(`/Type\s*/Page\b`)
	mediaBoxRe = regexp.MustCompile(`/MediaBox\s*\[\s*(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s*\]`)
)

// Info describes a PDF document.
type Info struct {
	Version string  // header version, e.g. "1.4"
	Pages   int     // number of page objects found
	Width   float64 // first MediaBox width in points, 0 when unknown
	Height  float64 // first MediaBox height in points, 0 when unknown
}

// Inspect validates the header of data and collects page information.
func Inspect(data []byte) (Info, error) {
	if !bytes.HasPrefix(data, header) {
		return Info{}, ErrNotPDF
	}

	info := Info{
		Version: version(data),
		Pages:   len(pageRe.FindAllIndex(data, -1)),
	}
	if m := mediaBoxRe.FindSubmatch(data); m != nil {
		x0, y0 := parseFloat(m[1]), parseFloat(m[2])
		x1, y1 := parseFloat(m[3]), parseFloat(m[4])
		info.Width = x1 - x0
		info.Height = y1 - y0
	}
	return info, nil
}

// InspectFile reads and inspects the PDF at path.
func InspectFile(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("pdfinfo: %w", err)
	}
	return Inspect(data)
}

// version returns the version string following the header.
func version(data []byte) string {
	rest := data[len(header):]
	if len(rest) > 16 {
		rest = rest[:16]
	}
	if i := bytes.IndexAny(rest, "\r\n %"); i >= 0 {
		rest = rest[:i]
	}
	v := strings.TrimSpace(string(rest))
	if v == "" {
		return "?"
	}
	return v
}

func parseFloat(b []byte) float64 {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0
	}
	return f
}
