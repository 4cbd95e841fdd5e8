package htmlpdf

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"

	"github.com/porticus-lab/go-native-html-pdf/internal/pdfinfo"
)

// Result holds the output of a successful conversion.
//
// File-mode results refer to the PDF on disk through [Result.Path]; byte-mode
// results carry the PDF in memory. The byte helpers read the file lazily for
// file-mode results.
type Result struct {
	path string
	data []byte
	size int64
	info pdfinfo.Info
}

// Path returns the location of the PDF for file-mode results, or "".
func (r *Result) Path() string {
	return r.path
}

// Bytes returns the raw PDF content. For file-mode results the file is read
// on each call; nil is returned if it can no longer be read.
func (r *Result) Bytes() []byte {
	if r.data != nil || r.path == "" {
		return r.data
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil
	}
	return data
}

// Base64 returns the PDF encoded as a standard base64 string (RFC 4648).
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Bytes())
}

// Reader returns an [*bytes.Reader] over the PDF content.
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.Bytes())
}

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// WriteToFile writes the PDF to the file at path, creating it if needed.
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, r.Bytes(), perm)
}

// Len returns the size of the PDF in bytes.
func (r *Result) Len() int {
	return int(r.size)
}

// Pages returns the number of pages found in the PDF. It is zero when the
// page objects could not be located.
func (r *Result) Pages() int {
	return r.info.Pages
}

// Version returns the PDF header version.
func (r *Result) Version() string {
	return r.info.Version
}

// Outcome is the terminal result of a request: either Result or Err is set.
type Outcome struct {
	Result *Result
	Err    error
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ResultSink receives the outcome of a request. Deliver is called exactly
// once per submitted request, from a goroutine owned by the converter unless
// the request was rejected synchronously.
type ResultSink interface {
	Deliver(Outcome)
}

// SinkFunc adapts a function to [ResultSink].
type SinkFunc func(Outcome)

// Deliver calls f(o).
func (f SinkFunc) Deliver(o Outcome) {
	f(o)
}
