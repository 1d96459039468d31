package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single evaluation unless Engine.Timeout is set.
const DefaultTimeout = 5 * time.Second

// ErrSuperseded is returned by an evaluation whose result arrived after a
// newer Evaluate call on the same Engine had started.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

type evalResult struct {
	scene  *Scene
	errors []EvalError
	err    error
}

// wait blocks until ch delivers, ctx is done or timeout elapses. An
// abandoned interpreter goroutine keeps running; its buffered send never
// blocks and the result is dropped.
func (e *Engine) wait(ctx context.Context, ch <-chan evalResult, gen uint64, timeout time.Duration) (*Scene, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}

// current reports whether gen is still the newest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}
