// Package engine defines the browser engine collaborators driven by the
// conversion coordinator: an Engine that hands out render surfaces, and the
// Surface that loads HTML, runs scripts and captures paginated PDF output.
package engine

import (
	"context"
	"errors"
	"io"

	"github.com/porticus-lab/go-native-html-pdf/geometry"
)

// Engine errors.
var (
	// ErrSurfaceLost reports that a surface was torn down or crashed while a
	// request was still using it.
	ErrSurfaceLost = errors.New("engine: surface lost")

	// ErrUnsupported reports that the engine lacks a capability required for
	// conversion.
	ErrUnsupported = errors.New("engine: unsupported")
)

// SourceKind tells how a [Source] is interpreted.
type SourceKind int

const (
	// SourceFile is a path to an HTML file on the local filesystem.
	SourceFile SourceKind = iota + 1
	// SourceInline is an HTML document held in memory.
	SourceInline
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceInline:
		return "inline"
	default:
		return "invalid"
	}
}

// Source is the HTML input of a conversion.
type Source struct {
	Kind  SourceKind
	Value string // file path or HTML markup, depending on Kind
}

// FilePath returns a Source that loads the HTML file at path.
func FilePath(path string) Source {
	return Source{Kind: SourceFile, Value: path}
}

// InlineHTML returns a Source that loads html directly.
func InlineHTML(html string) Source {
	return Source{Kind: SourceInline, Value: html}
}

// Capabilities describes what an engine can do. It is negotiated once when
// the engine is attached to a converter.
type Capabilities struct {
	Render    bool          // can host a render surface
	Print     bool          // can paginate a surface into PDF
	PaperUnit geometry.Unit // unit expected by Capture
	Product   string        // engine name and version, informational
}

// Supported reports whether conversions can run on this engine.
func (c Capabilities) Supported() bool {
	return c.Render && c.Print
}

// Engine creates render surfaces.
type Engine interface {
	// Negotiate reports the engine capabilities.
	Negotiate(ctx context.Context) (Capabilities, error)

	// NewSurface creates an isolated, invisible render surface.
	NewSurface(ctx context.Context) (Surface, error)

	// Close releases every resource held by the engine.
	Close() error
}

// Capturer paginates rendered content into a PDF stream.
type Capturer interface {
	// Capture writes the PDF rendition of the current document to w using
	// rect as both paper and printable area.
	Capture(ctx context.Context, rect geometry.Rect, w io.Writer) error
}

// Surface is a single render surface owned by one request at a time.
type Surface interface {
	Capturer

	// Load navigates the surface to src and returns once the main document
	// finished loading. Subresources such as images may still be pending.
	Load(ctx context.Context, src Source) error

	// Evaluate runs script in the loaded document, awaiting a returned
	// promise, and decodes the JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error

	// Detach stops any further navigation activity on the surface.
	Detach(ctx context.Context) error

	// PurgeSiteData removes cookies, caches and storage written while the
	// surface was loaded.
	PurgeSiteData(ctx context.Context) error

	// Close destroys the surface. Calling Close more than once is a no-op.
	Close() error
}
