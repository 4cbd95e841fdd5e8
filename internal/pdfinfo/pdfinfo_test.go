package pdfinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a small uncompressed document with n pages of w x h points.
func buildPDF(n int, w, h float64) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] >>\nendobj\n", i+3, w, h)
	}
	b.WriteString("trailer\n<< /Root 1 0 R >>\n%%EOF\n")
	return []byte(b.String())
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name  string
		pages int
		w, h  float64
	}{
		{"single A4", 1, 595.2, 841.8},
		{"three letter", 3, 612, 792},
		{"no pages", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Inspect(buildPDF(tt.pages, tt.w, tt.h))
			require.NoError(t, err)
			assert.Equal(t, "1.4", info.Version)
			assert.Equal(t, tt.pages, info.Pages)
			assert.InDelta(t, tt.w, info.Width, 1e-9)
			assert.InDelta(t, tt.h, info.Height, 1e-9)
		})
	}
}

func TestInspectOffsetMediaBox(t *testing.T) {
	data := []byte("%PDF-1.7\n1 0 obj << /Type/Page /MediaBox [ 10 20 110.5 220 ] >> endobj")
	info, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, "1.7", info.Version)
	assert.Equal(t, 1, info.Pages)
	assert.InDelta(t, 100.5, info.Width, 1e-9)
	assert.InDelta(t, 200, info.Height, 1e-9)
}

func TestInspectNotPDF(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("<html>"), []byte("%PS-Adobe")} {
		_, err := Inspect(data)
		assert.ErrorIs(t, err, ErrNotPDF)
	}
}

func TestInspectBareHeader(t *testing.T) {
	info, err := Inspect([]byte("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, "?", info.Version)
	assert.Zero(t, info.Pages)
}

func TestInspectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF(2, 100, 200), 0o644))

	info, err := InspectFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Pages)

	_, err = InspectFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
