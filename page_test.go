package htmlpdf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/porticus-lab/go-native-html-pdf/geometry"
)

func TestPaperRect_Inches(t *testing.T) {
	tests := []struct {
		name string
		ps   *PageSize
		w, h float64
	}{
		{"default", nil, 8.2667, 11.6917},
		{"letter", &Letter, 8.5, 11},
		{"legal", &Legal, 8.5, 14},
		{"A3", &A3, 11.6929, 16.5354},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paperRect(tt.ps, geometry.Inches)
			assert.InDelta(t, tt.w, got.Width, 0.001)
			assert.InDelta(t, tt.h, got.Height, 0.001)
		})
	}
}

func TestLookupPageSize(t *testing.T) {
	for _, name := range []string{"A3", "a4", "A5", "Letter", "LEGAL", "tabloid"} {
		_, ok := LookupPageSize(name)
		assert.True(t, ok, "LookupPageSize(%q) not found", name)
	}
	_, ok := LookupPageSize("B5")
	assert.False(t, ok)
}

func TestRequestClone(t *testing.T) {
	ps := &PageSize{Width: 100, Height: 200}
	r := BytesRequest("<p>x</p>", ps).clone()
	ps.Width = 1
	assert.NotSame(t, ps, r.PageSize)
	assert.Equal(t, 100.0, r.PageSize.Width)

	r = FileRequest("a.html", nil).clone()
	assert.Nil(t, r.PageSize)
	assert.Equal(t, OutputFile, r.Output)
}
