package probe

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type evalFunc func(ctx context.Context, script string, out any) error

func (f evalFunc) Evaluate(ctx context.Context, script string, out any) error {
	return f(ctx, script, out)
}

func returning(r Report) evalFunc {
	return func(_ context.Context, _ string, out any) error {
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, out)
	}
}

func TestAwaitNoImages(t *testing.T) {
	calls := 0
	ev := evalFunc(func(ctx context.Context, script string, out any) error {
		calls++
		return returning(Report{})(ctx, script, out)
	})

	r, err := Await(context.Background(), ev, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, r.Total)
	assert.True(t, r.Settled())
	assert.False(t, r.TimedOut)
}

func TestAwaitCountsImages(t *testing.T) {
	r, err := Await(context.Background(), returning(Report{Total: 3, Loaded: 2, Failed: 1}), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Loaded)
	assert.Equal(t, 1, r.Failed)
	assert.True(t, r.Settled())
}

func TestAwaitInPageTimeout(t *testing.T) {
	r, err := Await(context.Background(), returning(Report{Total: 2, Loaded: 1, TimedOut: true}), time.Second)
	require.NoError(t, err)
	assert.True(t, r.TimedOut)
	assert.False(t, r.Settled())
}

func TestAwaitEvaluationHangs(t *testing.T) {
	ev := evalFunc(func(ctx context.Context, _ string, _ any) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	r, err := Await(context.Background(), ev, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, r.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAwaitParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := evalFunc(func(ctx context.Context, _ string, _ any) error {
		return ctx.Err()
	})
	_, err := Await(ctx, ev, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitEvaluationError(t *testing.T) {
	boom := errors.New("boom")
	ev := evalFunc(func(context.Context, string, any) error { return boom })

	_, err := Await(context.Background(), ev, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestScript(t *testing.T) {
	s := Script(1500 * time.Millisecond)
	assert.True(t, strings.HasSuffix(s, "(1500)"))
	assert.Contains(t, s, "document.images")
	assert.Contains(t, s, "once: true")

	assert.True(t, strings.HasSuffix(Script(0), "(0)"))
	assert.True(t, strings.HasSuffix(Script(-time.Second), "(0)"))
}
