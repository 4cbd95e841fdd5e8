package htmlpdf

import "github.com/porticus-lab/go-native-html-pdf/engine"

// OutputKind selects how a conversion delivers its PDF.
type OutputKind int

const (
	// OutputFile writes the PDF to a stable location and delivers its path.
	OutputFile OutputKind = iota
	// OutputBytes delivers the PDF in memory. No file outlives the request.
	OutputBytes
)

func (k OutputKind) String() string {
	if k == OutputBytes {
		return "bytes"
	}
	return "file"
}

// Request describes a single conversion.
type Request struct {
	Source   engine.Source
	PageSize *PageSize // nil selects A4
	Output   OutputKind
}

// FileRequest returns a file-mode request for the HTML file at path.
func FileRequest(path string, ps *PageSize) Request {
	return Request{Source: engine.FilePath(path), PageSize: ps, Output: OutputFile}
}

// BytesRequest returns a byte-mode request for an inline HTML document.
func BytesRequest(html string, ps *PageSize) Request {
	return Request{Source: engine.InlineHTML(html), PageSize: ps, Output: OutputBytes}
}

// clone detaches r from caller-owned memory.
func (r Request) clone() Request {
	if r.PageSize != nil {
		ps := *r.PageSize
		r.PageSize = &ps
	}
	return r
}
