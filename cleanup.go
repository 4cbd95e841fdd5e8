package htmlpdf

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/porticus-lab/go-native-html-pdf/engine"
)

// cleanupTimeout bounds surface teardown, which runs after the request
// context may already have expired.
const cleanupTimeout = 5 * time.Second

// surfaceCleanup tears down a render surface exactly once. Every step is
// best-effort: failures are logged and never reach the caller.
type surfaceCleanup struct {
	surface engine.Surface
	log     *zap.Logger
	once    sync.Once
}

func newSurfaceCleanup(s engine.Surface, log *zap.Logger) *surfaceCleanup {
	return &surfaceCleanup{surface: s, log: log}
}

// Run detaches the surface, purges site data and closes it. Calls after the
// first are no-ops, as are calls on a nil receiver.
func (c *surfaceCleanup) Run(ctx context.Context) {
	if c == nil {
		return
	}
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()

		c.step("detach", func() error { return c.surface.Detach(ctx) })
		c.step("purge site data", func() error { return c.surface.PurgeSiteData(ctx) })
		c.step("close", c.surface.Close)
	})
}

func (c *surfaceCleanup) step(name string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Warn("surface cleanup panicked", zap.String("step", name), zap.Any("panic", p))
		}
	}()
	if err := fn(); err != nil {
		c.log.Warn("surface cleanup failed", zap.String("step", name), zap.Error(err))
	}
}
