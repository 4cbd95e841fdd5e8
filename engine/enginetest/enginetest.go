// Package enginetest provides an in-memory [engine.Engine] for tests.
//
// The fake engine never renders anything: surfaces record the calls they
// receive, return configurable errors, and capture a minimal PDF whose
// MediaBox matches the requested paper rectangle.
package enginetest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/porticus-lab/go-native-html-pdf/engine"
	"github.com/porticus-lab/go-native-html-pdf/geometry"
)

// Behavior configures the surfaces created by an [Engine].
type Behavior struct {
	LoadErr    error
	EvalErr    error
	CaptureErr error
	DetachErr  error
	PurgeErr   error
	CloseErr   error

	// EvalResult is JSON-encoded and decoded into the Evaluate output.
	// A nil EvalResult reports a document without images.
	EvalResult any

	// LoadGate, when non-nil, blocks Load until it is closed or the context
	// ends.
	LoadGate chan struct{}

	// EvalBlocks makes Evaluate wait for the context to end.
	EvalBlocks bool

	// CapturePanic makes Capture panic with this value.
	CapturePanic any

	// Output overrides the captured bytes.
	Output []byte

	// CloseOutput closes the capture writer after writing, when it is an
	// [io.Closer], so the caller's own Close fails.
	CloseOutput bool

	// RemoveOutput deletes the file behind the capture writer after
	// writing, when the writer is an *os.File.
	RemoveOutput bool
}

// Engine is a fake [engine.Engine].
type Engine struct {
	Caps          engine.Capabilities
	NegotiateErr  error
	NewSurfaceErr error
	Behavior      Behavior

	mu       sync.Mutex
	surfaces []*Surface
	closed   int
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine that supports printing in mils.
func New() *Engine {
	return &Engine{Caps: engine.Capabilities{
		Render:    true,
		Print:     true,
		PaperUnit: geometry.Mils,
		Product:   "FakeEngine/1.0",
	}}
}

// Negotiate returns e.Caps.
func (e *Engine) Negotiate(context.Context) (engine.Capabilities, error) {
	if e.NegotiateErr != nil {
		return engine.Capabilities{}, e.NegotiateErr
	}
	return e.Caps, nil
}

// NewSurface returns a new recording surface.
func (e *Engine) NewSurface(context.Context) (engine.Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.NewSurfaceErr != nil {
		return nil, e.NewSurfaceErr
	}
	s := &Surface{behavior: e.Behavior}
	e.surfaces = append(e.surfaces, s)
	return s, nil
}

// Close records the call.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

// Surfaces returns every surface created so far.
func (e *Engine) Surfaces() []*Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Surface(nil), e.surfaces...)
}

// Closed returns how many times Close was called.
func (e *Engine) Closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Calls counts the methods invoked on a [Surface].
type Calls struct {
	Load, Evaluate, Capture, Detach, Purge, Close int
}

// Surface is a fake [engine.Surface].
type Surface struct {
	behavior Behavior

	mu      sync.Mutex
	calls   Calls
	source  engine.Source
	rect    geometry.Rect
	scripts []string
}

var _ engine.Surface = (*Surface)(nil)

// Calls returns a snapshot of the call counters.
func (s *Surface) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Source returns the last loaded source.
func (s *Surface) Source() engine.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Rect returns the paper rectangle of the last capture.
func (s *Surface) Rect() geometry.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect
}

// Scripts returns the scripts evaluated so far.
func (s *Surface) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

func (s *Surface) Load(ctx context.Context, src engine.Source) error {
	s.mu.Lock()
	s.calls.Load++
	s.source = src
	s.mu.Unlock()

	if gate := s.behavior.LoadGate; gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.behavior.LoadErr
}

func (s *Surface) Evaluate(ctx context.Context, script string, out any) error {
	s.mu.Lock()
	s.calls.Evaluate++
	s.scripts = append(s.scripts, script)
	s.mu.Unlock()

	if s.behavior.EvalBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.behavior.EvalErr != nil {
		return s.behavior.EvalErr
	}
	result := s.behavior.EvalResult
	if result == nil {
		result = map[string]any{"total": 0, "loaded": 0, "failed": 0, "timedOut": false}
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *Surface) Capture(_ context.Context, rect geometry.Rect, w io.Writer) error {
	s.mu.Lock()
	s.calls.Capture++
	s.rect = rect
	s.mu.Unlock()

	if p := s.behavior.CapturePanic; p != nil {
		panic(p)
	}
	if s.behavior.CaptureErr != nil {
		return s.behavior.CaptureErr
	}
	out := s.behavior.Output
	if out == nil {
		pts := rect.In(geometry.Points)
		out = PDF(1, pts.Width, pts.Height)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if f, ok := w.(*os.File); ok && s.behavior.RemoveOutput {
		if err := os.Remove(f.Name()); err != nil {
			return err
		}
	}
	if c, ok := w.(io.Closer); ok && s.behavior.CloseOutput {
		return c.Close()
	}
	return nil
}

func (s *Surface) Detach(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Detach++
	return s.behavior.DetachErr
}

func (s *Surface) PurgeSiteData(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Purge++
	return s.behavior.PurgeErr
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Close++
	return s.behavior.CloseErr
}

// PDF returns a minimal uncompressed PDF with n pages of w x h points.
func PDF(n int, w, h float64) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] >>\nendobj\n", i+3, w, h)
	}
	b.WriteString("trailer\n<< /Root 1 0 R >>\n%%EOF\n")
	return []byte(b.String())
}
