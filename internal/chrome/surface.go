package chrome

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/porticus-lab/go-native-html-pdf/engine"
	"github.com/porticus-lab/go-native-html-pdf/geometry"
)

// surface is a single Chrome tab.
type surface struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	mu       sync.Mutex
	origin   string
	detached bool
	closed   bool
}

var _ engine.Surface = (*surface)(nil)

func newSurface(ctx context.Context, cancel context.CancelFunc, log *zap.Logger) *surface {
	return &surface{ctx: ctx, cancel: cancel, log: log}
}

// runWith executes actions on the target context while honoring the
// cancellation and deadline of ctx.
func runWith(ctx, target context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(target)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// run executes actions on the tab and classifies failures: a dead tab is
// reported as [engine.ErrSurfaceLost], an expired request context as its
// context error.
func (s *surface) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return engine.ErrSurfaceLost
	}

	err := runWith(ctx, s.ctx, actions...)
	switch {
	case err == nil:
		return nil
	case s.ctx.Err() != nil:
		return fmt.Errorf("%w: %v", engine.ErrSurfaceLost, err)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	default:
		return err
	}
}

// Load navigates to a file URL or writes inline markup into a blank page.
func (s *surface) Load(ctx context.Context, src engine.Source) error {
	var actions []chromedp.Action
	switch src.Kind {
	case engine.SourceFile:
		u, err := fileURL(src.Value)
		if err != nil {
			return err
		}
		actions = append(actions, chromedp.Navigate(u))
	case engine.SourceInline:
		actions = append(actions,
			chromedp.Navigate("about:blank"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				tree, err := page.GetFrameTree().Do(ctx)
				if err != nil {
					return err
				}
				return page.SetDocumentContent(tree.Frame.ID, src.Value).Do(ctx)
			}),
		)
	default:
		return fmt.Errorf("chrome: unknown source kind %v", src.Kind)
	}

	var origin string
	actions = append(actions,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`location.origin`, &origin),
	)
	if err := s.run(ctx, actions...); err != nil {
		return fmt.Errorf("chrome: loading %s source: %w", src.Kind, err)
	}

	s.mu.Lock()
	s.origin = origin
	s.mu.Unlock()
	return nil
}

// Evaluate runs script, awaiting a returned promise.
func (s *surface) Evaluate(ctx context.Context, script string, out any) error {
	return s.run(ctx, chromedp.Evaluate(script, out,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
}

// Capture prints the tab with rect as paper size and no margins.
func (s *surface) Capture(ctx context.Context, rect geometry.Rect, w io.Writer) error {
	in := rect.In(geometry.Inches)

	var buf []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(in.Width).
			WithPaperHeight(in.Height).
			WithMarginTop(0).
			WithMarginRight(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithPrintBackground(true).
			WithPreferCSSPageSize(false).
			Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("chrome: printing: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("chrome: writing pdf: %w", err)
	}
	return nil
}

// Detach stops loading and leaves the tab on a blank page.
func (s *surface) Detach(ctx context.Context) error {
	s.mu.Lock()
	if s.detached || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.detached = true
	s.mu.Unlock()

	return s.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.StopLoading().Do(ctx)
		}),
		chromedp.Navigate("about:blank"),
	)
}

// PurgeSiteData clears cookies, the HTTP cache and origin storage.
func (s *surface) PurgeSiteData(ctx context.Context) error {
	s.mu.Lock()
	origin := s.origin
	s.mu.Unlock()

	actions := []chromedp.Action{
		network.ClearBrowserCookies(),
		network.ClearBrowserCache(),
	}
	if origin != "" && origin != "null" {
		actions = append(actions, storage.ClearDataForOrigin(origin, "all"))
	}
	return s.run(ctx, actions...)
}

// Close closes the tab. Close is idempotent.
func (s *surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if err != nil {
		s.log.Debug("closing tab", zap.Error(err))
	}
	return nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("chrome: resolving path: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
