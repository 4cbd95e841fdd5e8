// Package probe waits for the images of a loaded document to finish loading.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds how long Await waits for pending images.
const DefaultTimeout = 10 * time.Second

// grace is added to the in-page timeout before the caller side gives up on
// the evaluation itself.
const grace = 2 * time.Second

// Evaluator runs a promise-returning script and decodes its result.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, out any) error
}

// Report summarizes the image state of a document.
type Report struct {
	Total    int  `json:"total"`
	Loaded   int  `json:"loaded"`
	Failed   int  `json:"failed"`
	TimedOut bool `json:"timedOut"`
}

// Settled reports whether every image either loaded or failed.
func (r Report) Settled() bool {
	return r.Loaded+r.Failed >= r.Total
}

// script resolves once every image in the document has fired load or error,
// or when the timeout elapses. Images that are already complete count
// immediately. Each image is counted at most once.
const script = `(function (timeoutMs) {
  return new Promise(function (resolve) {
    var images = Array.prototype.slice.call(document.images || []);
    var report = { total: images.length, loaded: 0, failed: 0, timedOut: false };
    if (images.length === 0) {
      resolve(report);
      return;
    }
    var pending = images.length;
    var done = false;
    var timer = null;
    var seen = new Set();
    function finish() {
      if (done) return;
      done = true;
      if (timer !== null) clearTimeout(timer);
      resolve(report);
    }
    function mark(img, ok) {
      if (seen.has(img)) return;
      seen.add(img);
      if (ok) { report.loaded++; } else { report.failed++; }
      pending--;
      if (pending === 0) finish();
    }
    images.forEach(function (img) {
      if (img.complete) {
        mark(img, img.naturalWidth > 0);
        return;
      }
      img.addEventListener('load', function () { mark(img, true); }, { once: true });
      img.addEventListener('error', function () { mark(img, false); }, { once: true });
    });
    if (!done && timeoutMs > 0) {
      timer = setTimeout(function () {
        report.timedOut = true;
        finish();
      }, timeoutMs);
    }
  });
})(%d)`

// Script returns the readiness script with the given in-page timeout.
// A zero or negative timeout waits indefinitely.
func Script(timeout time.Duration) string {
	ms := int64(0)
	if timeout > 0 {
		ms = timeout.Milliseconds()
	}
	return fmt.Sprintf(script, ms)
}

// Await evaluates the readiness script on ev and returns the resulting
// report. When the wait exceeds timeout the returned report has TimedOut set
// and err is nil. Errors are returned for parent context expiry and for
// evaluation failures.
func Await(ctx context.Context, ev Evaluator, timeout time.Duration) (Report, error) {
	evalCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, timeout+grace)
		defer cancel()
	}

	var r Report
	err := ev.Evaluate(evalCtx, Script(timeout), &r)
	switch {
	case err == nil:
		return r, nil
	case ctx.Err() != nil:
		return Report{}, fmt.Errorf("probe: %w", ctx.Err())
	case errors.Is(evalCtx.Err(), context.DeadlineExceeded):
		return Report{TimedOut: true}, nil
	default:
		return Report{}, fmt.Errorf("probe: evaluating readiness script: %w", err)
	}
}
