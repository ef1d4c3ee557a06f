// Package jobs runs recurring background work on tickers, instrumented
// with Prometheus counters. The only job the app schedules today is the
// hourly inventory reset check.
package jobs

import (
	"context"
	"time"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
}

func New(ctx context.Context) *Runner { return &Runner{ctx: ctx} }

// Every schedules fn on a fixed interval until the runner's context is done.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				start := time.Now()
				if err := fn(r.ctx); err != nil {
					jobErrors.WithLabelValues(name).Inc()
				}
				jobRuns.WithLabelValues(name).Inc()
				jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			}
		}
	}()
}
