package htmlpdf

import (
	"time"

	"go.uber.org/zap"

	"github.com/porticus-lab/go-native-html-pdf/engine"
	"github.com/porticus-lab/go-native-html-pdf/internal/probe"
)

// converterConfig holds internal configuration for a Converter.
type converterConfig struct {
	engine       engine.Engine
	logger       *zap.Logger
	timeout      time.Duration
	assetTimeout time.Duration
	settleDelay  time.Duration
	filesDir     string
	cacheDir     string
	hooks        Hooks

	// Chrome engine settings, ignored when an engine is supplied.
	chromePath   string
	remoteURL    string
	noSandbox    bool
	autoDownload bool
	headless     string
}

func defaultConfig() converterConfig {
	return converterConfig{
		logger:       zap.NewNop(),
		timeout:      30 * time.Second,
		assetTimeout: probe.DefaultTimeout,
		settleDelay:  300 * time.Millisecond,
		headless:     "new",
	}
}

// Option configures a [Converter].
type Option func(*converterConfig)

// WithEngine sets the browser engine used for rendering. By default a
// headless Chrome engine is started.
//
// The Converter takes ownership of e: [Converter.Close] closes it, and so
// does a failed [NewConverter].
func WithEngine(e engine.Engine) Option {
	return func(c *converterConfig) {
		c.engine = e
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *converterConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the maximum duration for a single conversion.
// Defaults to 30 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithAssetTimeout bounds the wait for images after the document loaded.
// When it elapses the conversion proceeds with whatever has loaded.
// Defaults to 10 seconds; zero or negative waits without a bound.
func WithAssetTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.assetTimeout = d
	}
}

// WithSettleDelay sets the pause between asset readiness and capture, giving
// layout and paint a chance to finish. Defaults to 300 milliseconds.
func WithSettleDelay(d time.Duration) Option {
	return func(c *converterConfig) {
		c.settleDelay = d
	}
}

// WithFilesDir sets the directory that receives file-mode output.
func WithFilesDir(dir string) Option {
	return func(c *converterConfig) {
		c.filesDir = dir
	}
}

// WithCacheDir sets the directory used for byte-mode scratch files.
func WithCacheDir(dir string) Option {
	return func(c *converterConfig) {
		c.cacheDir = dir
	}
}

// WithHooks registers observers for state transitions and outcomes.
func WithHooks(h Hooks) Option {
	return func(c *converterConfig) {
		c.hooks = h
	}
}

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *converterConfig) {
		c.chromePath = path
	}
}

// WithRemoteURL connects to an already running browser through its DevTools
// websocket URL instead of launching one.
func WithRemoteURL(url string) Option {
	return func(c *converterConfig) {
		c.remoteURL = url
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *converterConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload downloads a compatible Chromium build when no browser is
// found locally.
func WithAutoDownload() Option {
	return func(c *converterConfig) {
		c.autoDownload = true
	}
}
