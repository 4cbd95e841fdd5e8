package htmlpdf

import "github.com/porticus-lab/go-native-html-pdf/geometry"

// PageSize represents paper dimensions in points. See [geometry.PageSize].
type PageSize = geometry.PageSize

// Standard paper sizes in points.
var (
	A3      = geometry.A3
	A4      = geometry.A4
	A5      = geometry.A5
	Letter  = geometry.Letter
	Legal   = geometry.Legal
	Tabloid = geometry.Tabloid
)

// LookupPageSize returns the standard paper size with the given name, such
// as "A4" or "letter".
func LookupPageSize(name string) (PageSize, bool) {
	return geometry.Lookup(name)
}

// paperRect returns the engine-native paper rectangle for ps.
func paperRect(ps *PageSize, unit geometry.Unit) geometry.Rect {
	return geometry.PaperRect(ps, unit)
}
