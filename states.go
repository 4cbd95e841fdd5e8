package htmlpdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/porticus-lab/go-native-html-pdf/engine"
	"github.com/porticus-lab/go-native-html-pdf/geometry"
	"github.com/porticus-lab/go-native-html-pdf/internal/pdfinfo"
	"github.com/porticus-lab/go-native-html-pdf/internal/probe"
)

// State is a step in the lifecycle of a conversion request.
type State int

// Request states. Every accepted request ends in Delivered; requests refused
// on submission end in Rejected.
const (
	StateIdle State = iota
	StateAccepted
	StateLoading
	StateAwaitingAssets
	StateSettling
	StateCapturing
	StatePersisting
	StateCleaningUp
	StateDelivered
	StateRejected
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateAccepted:       "accepted",
	StateLoading:        "loading",
	StateAwaitingAssets: "awaiting_assets",
	StateSettling:       "settling",
	StateCapturing:      "capturing",
	StatePersisting:     "persisting",
	StateCleaningUp:     "cleaning_up",
	StateDelivered:      "delivered",
	StateRejected:       "rejected",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transition records a request moving from one state to another.
type Transition struct {
	RequestID string
	From, To  State
}

// OutcomeEvent describes a delivered outcome.
type OutcomeEvent struct {
	RequestID string
	Output    OutputKind
	Code      string // empty on success
	Pages     int
	Duration  time.Duration
}

// Hooks observe the conversion state machine. Hooks run synchronously on the
// goroutine driving the request and must not block. A hook that panics is
// logged; the request carries on.
type Hooks struct {
	OnTransition func(Transition)
	OnOutcome    func(OutcomeEvent)
}

// stateFn performs the work of one state and returns the next one, or nil
// when the request is finished.
type stateFn func(ctx context.Context) stateFn

// run is the in-flight state of a single request. It is owned by the
// goroutine that drives it.
type run struct {
	c       *Converter
	id      string
	req     Request
	sink    ResultSink
	log     *zap.Logger
	started time.Time

	state   State
	rect    geometry.Rect
	surface engine.Surface
	cleanup *surfaceCleanup
	target  string // file written by Capturing, "" once consumed or deliverable
	outcome Outcome
}

// drive advances the request until it is delivered.
func (r *run) drive(ctx context.Context) {
	defer r.c.wg.Done()

	if r.c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.c.cfg.timeout)
		defer cancel()
	}

	for fn := stateFn(r.accepted); fn != nil; {
		fn = r.step(ctx, fn)
	}
}

// step runs fn, turning a panic into a failure that still flows through
// cleanup and delivery.
func (r *run) step(ctx context.Context, fn stateFn) (next stateFn) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		r.log.Error("conversion panicked",
			zap.Stringer("state", r.state), zap.Any("panic", p), zap.Stack("stack"))
		switch r.state {
		case StateCleaningUp:
			r.cleanup.Run(ctx)
			r.c.release(r)
			next = r.delivered
		case StateDelivered:
			// No-op when the sink already fired.
			r.sink.Deliver(r.outcome)
			next = nil
		default:
			next = r.fail(newError(KindSurfaceLost, nil, "panic in %s: %v", r.state, p))
		}
	}()
	return fn(ctx)
}

func (r *run) enter(s State) {
	from := r.state
	r.state = s
	r.log.Debug("state transition", zap.Stringer("from", from), zap.Stringer("to", s))
	observe(r.log, r.c.cfg.hooks.OnTransition, Transition{RequestID: r.id, From: from, To: s})
}

// observe calls hook with v. A panicking hook is logged and otherwise
// ignored.
func observe[T any](log *zap.Logger, hook func(T), v T) {
	if hook == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error("hook panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	hook(v)
}

// fail records err as the outcome and routes the request to cleanup.
func (r *run) fail(err *Error) stateFn {
	r.outcome = Outcome{Err: err}
	return r.cleaningUp
}

// classify maps an engine error to a failure of the given fallback kind,
// recognizing surface loss and deadline expiry.
func (r *run) classify(ctx context.Context, err error, fallback Kind, msg string) *Error {
	switch {
	case errors.Is(err, engine.ErrSurfaceLost):
		return newError(KindSurfaceLost, err, "%s", msg)
	case ctx.Err() != nil, errors.Is(err, context.DeadlineExceeded):
		return newError(KindTimeout, err, "%s", msg)
	default:
		return newError(fallback, err, "%s", msg)
	}
}

func (r *run) accepted(ctx context.Context) stateFn {
	r.enter(StateAccepted)

	caps := r.c.caps
	if !caps.Supported() {
		return r.fail(newError(KindUnsupportedPlatform, engine.ErrUnsupported,
			"engine %q cannot render and print", caps.Product))
	}
	if r.req.Source.Kind == engine.SourceFile {
		if _, err := os.Stat(r.req.Source.Value); err != nil {
			return r.fail(newError(KindIO, err, "reading source"))
		}
	}

	r.rect = paperRect(r.req.PageSize, caps.PaperUnit)

	s, err := r.c.engine.NewSurface(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return r.fail(newError(KindTimeout, err, "acquiring render surface"))
		}
		return r.fail(newError(KindNoHost, err, "acquiring render surface"))
	}
	r.surface = s
	r.cleanup = newSurfaceCleanup(s, r.log)
	return r.loading
}

func (r *run) loading(ctx context.Context) stateFn {
	r.enter(StateLoading)
	if err := r.surface.Load(ctx, r.req.Source); err != nil {
		return r.fail(r.classify(ctx, err, KindNavigation, "loading document"))
	}
	return r.awaitingAssets
}

func (r *run) awaitingAssets(ctx context.Context) stateFn {
	r.enter(StateAwaitingAssets)
	report, err := probe.Await(ctx, r.surface, r.c.cfg.assetTimeout)
	switch {
	case err == nil:
	case ctx.Err() != nil || errors.Is(err, engine.ErrSurfaceLost):
		return r.fail(r.classify(ctx, err, KindSurfaceLost, "waiting for images"))
	default:
		r.log.Warn("image readiness check failed, continuing", zap.Error(err))
		return r.settling
	}

	if report.TimedOut {
		r.log.Warn("images still loading, continuing",
			zap.Int("images", report.Total),
			zap.Int("loaded", report.Loaded),
			zap.Int("failed", report.Failed))
	} else {
		r.log.Debug("images ready",
			zap.Int("images", report.Total),
			zap.Int("loaded", report.Loaded),
			zap.Int("failed", report.Failed))
	}
	return r.settling
}

func (r *run) settling(ctx context.Context) stateFn {
	r.enter(StateSettling)
	if d := r.c.cfg.settleDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return r.fail(newError(KindTimeout, ctx.Err(), "settling"))
		}
	}
	return r.capturing
}

func (r *run) capturing(ctx context.Context) stateFn {
	r.enter(StateCapturing)

	path := r.c.store.DocumentPath()
	if r.req.Output == OutputBytes {
		path = r.c.store.ScratchPath()
	}
	f, err := r.c.store.Create(path)
	if err != nil {
		return r.fail(newError(KindIO, err, "opening output"))
	}
	r.target = path

	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
	}()
	err = r.surface.Capture(ctx, r.rect, f)
	closeErr := f.Close()
	closed = true
	if err != nil {
		return r.fail(r.classify(ctx, err, KindCapture, "printing document"))
	}
	if closeErr != nil {
		return r.fail(newError(KindIO, closeErr, "writing output"))
	}
	return r.persisting
}

func (r *run) persisting(ctx context.Context) stateFn {
	r.enter(StatePersisting)

	res := &Result{}
	if r.req.Output == OutputBytes {
		data, err := r.c.store.ReadAndDelete(r.target)
		r.target = ""
		if err != nil {
			return r.fail(newError(KindIO, err, "reading output"))
		}
		res.data = data
		res.size = int64(len(data))
	} else {
		fi, err := os.Stat(r.target)
		if err != nil {
			return r.fail(newError(KindIO, err, "reading output"))
		}
		res.path = r.target
		res.size = fi.Size()
	}

	var (
		info pdfinfo.Info
		err  error
	)
	if res.data != nil {
		info, err = pdfinfo.Inspect(res.data)
	} else {
		info, err = pdfinfo.InspectFile(res.path)
	}
	if err != nil {
		return r.fail(newError(KindCapture, err, "validating output"))
	}
	res.info = info

	// The file now belongs to the caller.
	r.target = ""
	r.outcome = Outcome{Result: res}
	return r.cleaningUp
}

func (r *run) cleaningUp(ctx context.Context) stateFn {
	r.enter(StateCleaningUp)
	if r.target != "" {
		r.c.store.Delete(r.target)
		r.target = ""
	}
	r.cleanup.Run(ctx)
	r.surface = nil
	r.c.release(r)
	return r.delivered
}

func (r *run) delivered(context.Context) stateFn {
	r.enter(StateDelivered)
	r.c.report(r.id, r.req.Output, r.outcome, time.Since(r.started), r.log)
	r.sink.Deliver(r.outcome)
	return nil
}
