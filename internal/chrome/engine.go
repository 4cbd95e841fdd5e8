// Package chrome implements the render engine on headless Chrome through the
// Chrome DevTools Protocol.
package chrome

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/porticus-lab/go-native-html-pdf/engine"
	"github.com/porticus-lab/go-native-html-pdf/geometry"
)

// MinimumMajorVersion is the oldest Chrome release trusted to print with
// explicit paper sizes and promise-aware evaluation.
const MinimumMajorVersion = 90

// Config configures the Chrome engine.
type Config struct {
	ExecPath     string // browser executable, discovered when empty
	RemoteURL    string // DevTools websocket of a running browser; skips launching
	NoSandbox    bool
	AutoDownload bool
	Headless     string // value of the --headless flag, "new" when empty
	Logger       *zap.Logger
}

// Engine hands out Chrome tabs as render surfaces. A single browser process
// is shared by every surface.
type Engine struct {
	log           *zap.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

var _ engine.Engine = (*Engine)(nil)

// New starts the browser, or attaches to a remote one, and returns the
// engine. The browser is started eagerly so errors surface here.
func New(cfg Config) (*Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		path, err := resolveBrowser(cfg.ExecPath, cfg.AutoDownload)
		if err != nil {
			return nil, err
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg, path)...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Warnf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chrome: starting browser: %w", err)
	}

	return &Engine{
		log:           log,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func allocatorOptions(cfg Config, path string) []chromedp.ExecAllocatorOption {
	headless := cfg.Headless
	if headless == "" {
		headless = "new"
	}
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("headless", headless),
	)
	if path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// Negotiate queries the browser version. Chrome can always render; printing
// is trusted from [MinimumMajorVersion] on.
func (e *Engine) Negotiate(ctx context.Context) (engine.Capabilities, error) {
	if err := e.checkClosed(); err != nil {
		return engine.Capabilities{}, err
	}

	var product string
	err := runWith(ctx, e.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		_, product, _, _, _, err = browser.GetVersion().Do(ctx)
		return err
	}))
	if err != nil {
		return engine.Capabilities{}, fmt.Errorf("chrome: reading browser version: %w", err)
	}

	major, ok := majorVersion(product)
	caps := engine.Capabilities{
		Render:    true,
		Print:     ok && major >= MinimumMajorVersion,
		PaperUnit: geometry.Inches,
		Product:   product,
	}
	if !caps.Print {
		e.log.Warn("browser too old to print", zap.String("product", product),
			zap.Int("minimum_major", MinimumMajorVersion))
	}
	return caps, nil
}

// NewSurface opens a new tab.
func (e *Engine) NewSurface(ctx context.Context) (engine.Surface, error) {
	if err := e.checkClosed(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The first run on a tab context creates the target and binds its
	// lifetime to that context, so it must not see a derived deadline.
	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("chrome: opening tab: %w", err)
	}
	return newSurface(tabCtx, tabCancel, e.log), nil
}

// Close shuts the browser down. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.browserCancel()
	e.allocCancel()
	return nil
}

func (e *Engine) checkClosed() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("chrome: engine closed: %w", engine.ErrSurfaceLost)
	}
	return nil
}
