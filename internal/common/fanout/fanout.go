// internal/common/fanout/fanout.go
package fanout

import (
	"context"
	"fmt"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"

	"golang.org/x/sync/errgroup"
)

// Group runs independent best-effort tasks concurrently. Every goroutine
// returns nil to the underlying errgroup, so one failing task never
// cancels or short-circuits its siblings.
type Group struct {
	ctx    context.Context
	eg     errgroup.Group
	logger logger.Logger
}

// NewGroup creates a Group. limit <= 0 means no concurrency limit.
func NewGroup(ctx context.Context, limit int, log logger.Logger) *Group {
	g := &Group{ctx: ctx, logger: log}
	if limit > 0 {
		g.eg.SetLimit(limit)
	}
	return g
}

// Go schedules fn. The returned Result is only safe to read after Wait.
// On error or panic the Result carries def and the failure is logged.
func Go[T any](g *Group, name string, def T, fn func(ctx context.Context) (T, error)) *models.Result[T] {
	res := &models.Result[T]{Value: def}
	g.eg.Go(func() error {
		start := time.Now()
		v, err := safeCall(g.ctx, fn)
		if err != nil {
			g.logger.Warn("fan-out task failed, using default", map[string]interface{}{
				"task":       name,
				"error":      err.Error(),
				"durationMs": time.Since(start).Milliseconds(),
			})
			*res = models.Err(err, def)
			return nil
		}
		*res = models.Ok(v)
		return nil
	})
	return res
}

// Wait blocks until every task has finished.
func (g *Group) Wait() {
	_ = g.eg.Wait()
}

func safeCall[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
