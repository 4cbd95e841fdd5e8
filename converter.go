package htmlpdf

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/porticus-lab/go-native-html-pdf/engine"
	"github.com/porticus-lab/go-native-html-pdf/internal/artifact"
	"github.com/porticus-lab/go-native-html-pdf/internal/chrome"
)

// Converter converts HTML content to PDF documents.
//
// A Converter drives one render surface at a time. A request submitted while
// another is in flight is rejected with [ErrBusy] rather than queued. It is
// safe for concurrent use.
//
// Call [Converter.Close] when the Converter is no longer needed to release
// browser resources.
type Converter struct {
	cfg    converterConfig
	engine engine.Engine
	caps   engine.Capabilities
	store  *artifact.Store
	log    *zap.Logger

	mu     sync.Mutex
	slot   *run
	closed bool
	wg     sync.WaitGroup
}

// NewConverter creates a Converter with the given options.
//
// Unless [WithEngine] is given it starts a headless browser in the
// background. Engine capabilities are negotiated once here; an engine that
// cannot render or print yields a Converter whose requests fail with
// [ErrUnsupportedPlatform]. The caller must call [Converter.Close] when
// finished.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	eng := cfg.engine
	if eng == nil {
		ce, err := chrome.New(chrome.Config{
			ExecPath:     cfg.chromePath,
			RemoteURL:    cfg.remoteURL,
			NoSandbox:    cfg.noSandbox,
			AutoDownload: cfg.autoDownload,
			Headless:     cfg.headless,
			Logger:       cfg.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("htmlpdf: starting browser: %w", err)
		}
		eng = ce
	}

	ctx := context.Background()
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	caps, err := eng.Negotiate(ctx)
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("htmlpdf: negotiating engine capabilities: %w", err)
	}
	cfg.logger.Info("engine ready",
		zap.String("product", caps.Product),
		zap.Bool("render", caps.Render),
		zap.Bool("print", caps.Print),
		zap.Stringer("paper_unit", caps.PaperUnit))

	return &Converter{
		cfg:    cfg,
		engine: eng,
		caps:   caps,
		store:  artifact.New(cfg.filesDir, cfg.cacheDir, cfg.logger),
		log:    cfg.logger,
	}, nil
}

// Capabilities returns the capabilities negotiated with the engine.
func (c *Converter) Capabilities() engine.Capabilities {
	return c.caps
}

// InFlight reports whether a request currently owns the render surface.
func (c *Converter) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot != nil
}

// Close waits for the in-flight request to be delivered, then releases all
// resources held by the Converter, including the browser process. Requests
// submitted after Close fail with [ErrClosed]. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	return c.engine.Close()
}

// Submit starts converting req and returns immediately. The outcome is
// delivered to sink exactly once: synchronously when the request is refused
// ([ErrBusy], [ErrClosed]), otherwise from the goroutine running the
// conversion. ctx bounds the whole conversion.
func (c *Converter) Submit(ctx context.Context, req Request, sink ResultSink) {
	sink = once(sink, c.log)
	id := uuid.NewString()
	log := c.log.With(
		zap.String("request_id", id),
		zap.Stringer("output", req.Output),
		zap.Stringer("source", req.Source.Kind))

	c.mu.Lock()
	var refused *Error
	switch {
	case c.closed:
		refused = ErrClosed
	case c.slot != nil:
		refused = newError(KindBusy, nil, "another conversion is in progress")
	}
	if refused != nil {
		c.mu.Unlock()
		observe(log, c.cfg.hooks.OnTransition, Transition{RequestID: id, From: StateIdle, To: StateRejected})
		c.report(id, req.Output, Outcome{Err: refused}, 0, log)
		sink.Deliver(Outcome{Err: refused})
		return
	}

	r := &run{
		c:       c,
		id:      id,
		req:     req.clone(),
		sink:    sink,
		log:     log,
		started: time.Now(),
	}
	c.slot = r
	c.wg.Add(1)
	c.mu.Unlock()

	go r.drive(ctx)
}

// release frees the slot held by r.
func (c *Converter) release(r *run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slot == r {
		c.slot = nil
	}
}

func (c *Converter) report(id string, out OutputKind, o Outcome, d time.Duration, log *zap.Logger) {
	ev := OutcomeEvent{RequestID: id, Output: out, Duration: d}
	if o.Err != nil {
		ev.Code = CodeOf(o.Err)
		if ev.Code == "" {
			ev.Code = KindUnknown.Code()
		}
		log.Warn("conversion failed", zap.String("code", ev.Code), zap.Duration("duration", d), zap.Error(o.Err))
	} else {
		ev.Pages = o.Result.Pages()
		log.Info("conversion complete",
			zap.Int("bytes", o.Result.Len()),
			zap.Int("pages", ev.Pages),
			zap.Duration("duration", d))
	}
	observe(log, c.cfg.hooks.OnOutcome, ev)
}

// Convert runs req and waits for its outcome.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	done := make(chan Outcome, 1)
	c.Submit(ctx, req, SinkFunc(func(o Outcome) { done <- o }))
	o := <-done
	return o.Result, o.Err
}

// ConvertToFile converts the HTML file at htmlFilePath and returns the path
// of the generated PDF. A nil ps selects A4.
//
// The output location is stable: each call overwrites the previous file.
func (c *Converter) ConvertToFile(ctx context.Context, htmlFilePath string, ps *PageSize) (string, error) {
	res, err := c.Convert(ctx, FileRequest(htmlFilePath, ps))
	if err != nil {
		return "", err
	}
	return res.Path(), nil
}

// ConvertToBytes converts an HTML document held in memory and returns the
// PDF bytes. A nil ps selects A4. No file outlives the call.
func (c *Converter) ConvertToBytes(ctx context.Context, html string, ps *PageSize) ([]byte, error) {
	res, err := c.Convert(ctx, BytesRequest(html, ps))
	if err != nil {
		return nil, err
	}
	return res.Bytes(), nil
}

// onceSink delivers to the wrapped sink at most once.
type onceSink struct {
	sink      ResultSink
	log       *zap.Logger
	delivered atomic.Bool
}

func once(s ResultSink, log *zap.Logger) ResultSink {
	if s == nil {
		s = SinkFunc(func(Outcome) {})
	}
	return &onceSink{sink: s, log: log}
}

func (s *onceSink) Deliver(o Outcome) {
	if !s.delivered.CompareAndSwap(false, true) {
		s.log.Error("outcome delivered twice, dropping", zap.Bool("ok", o.OK()))
		return
	}
	s.sink.Deliver(o)
}

// --- Package-level convenience functions ---

// ConvertToFile converts an HTML file to PDF using a temporary [Converter]
// and returns the path of the generated PDF.
func ConvertToFile(ctx context.Context, htmlFilePath string, ps *PageSize, opts ...Option) (string, error) {
	conv, err := NewConverter(opts...)
	if err != nil {
		return "", err
	}
	defer conv.Close()
	return conv.ConvertToFile(ctx, htmlFilePath, ps)
}

// ConvertToBytes converts an HTML document to PDF bytes using a temporary
// [Converter]. For repeated use, create a [Converter] with [NewConverter] to
// reuse the browser instance.
func ConvertToBytes(ctx context.Context, html string, ps *PageSize, opts ...Option) ([]byte, error) {
	conv, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	defer conv.Close()
	return conv.ConvertToBytes(ctx, html, ps)
}
