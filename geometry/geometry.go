// Package geometry translates logical page sizes into the paper rectangles
// understood by rendering engines.
package geometry

import (
	"math"
	"strings"
)

// PageSize represents paper dimensions in typographic points (1/72 inch).
type PageSize struct {
	Width  float64 // Width in points.
	Height float64 // Height in points.
}

// Standard paper sizes in points.
var (
	A3      = PageSize{Width: 841.89, Height: 1190.55}
	A4      = PageSize{Width: 595.2, Height: 841.8}
	A5      = PageSize{Width: 419.53, Height: 595.28}
	Letter  = PageSize{Width: 612, Height: 792}
	Legal   = PageSize{Width: 612, Height: 1008}
	Tabloid = PageSize{Width: 792, Height: 1224}
)

// a4Integral is the A4 basis used by engines with integral units.
var a4Integral = PageSize{Width: 595, Height: 842}

var named = map[string]PageSize{
	"a3":      A3,
	"a4":      A4,
	"a5":      A5,
	"letter":  Letter,
	"legal":   Legal,
	"tabloid": Tabloid,
}

// Lookup returns the standard paper size with the given case-insensitive name.
func Lookup(name string) (PageSize, bool) {
	ps, ok := named[strings.ToLower(strings.TrimSpace(name))]
	return ps, ok
}

// Unit is the measurement unit of an engine-native paper rectangle.
type Unit int

const (
	// Points are 1/72 inch.
	Points Unit = iota
	// Mils are 1/1000 inch. Values in mils are always integral.
	Mils
	// Inches.
	Inches
)

func (u Unit) String() string {
	switch u {
	case Points:
		return "pt"
	case Mils:
		return "mil"
	case Inches:
		return "in"
	default:
		return "unknown"
	}
}

// MilsPerPoint is the number of mils in one point.
const MilsPerPoint = 1000.0 / 72.0

// Rect is a paper rectangle in an engine-native unit.
type Rect struct {
	Width  float64
	Height float64
	Unit   Unit
}

// PaperRect converts ps into a paper rectangle expressed in unit.
//
// A nil ps selects ISO A4. Conversions to mils truncate toward zero, so
// 595x842 points becomes 8263x11694 mils. Zero and negative dimensions are
// passed through unchanged; rejecting them is left to the capture backend.
func PaperRect(ps *PageSize, unit Unit) Rect {
	if ps == nil {
		if unit == Mils {
			return PaperRect(&a4Integral, Mils)
		}
		return PaperRect(&A4, unit)
	}
	return Rect{Width: ps.Width, Height: ps.Height, Unit: Points}.In(unit)
}

// In returns r converted to unit.
func (r Rect) In(unit Unit) Rect {
	if r.Unit == unit {
		return r
	}
	w, h := toPoints(r.Width, r.Unit), toPoints(r.Height, r.Unit)
	return Rect{Width: fromPoints(w, unit), Height: fromPoints(h, unit), Unit: unit}
}

func toPoints(v float64, u Unit) float64 {
	switch u {
	case Mils:
		return v * 72 / 1000
	case Inches:
		return v * 72
	default:
		return v
	}
}

func fromPoints(v float64, u Unit) float64 {
	switch u {
	case Mils:
		return math.Trunc(v * 1000 / 72)
	case Inches:
		return v / 72
	default:
		return v
	}
}
