// Package scheduler runs the periodic jobs: search-service housekeeping on
// the API side and the connectivity probe on the client side.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runner wraps robfig/cron for a single job that also fires once on Start.
type runner struct {
	cron   *cron.Cron
	spec   string
	logger *zap.Logger
	wg     sync.WaitGroup
}

func newRunner(spec string, logger *zap.Logger) *runner {
	cl := cronLogger{logger.Sugar()}
	return &runner{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		spec:   spec,
		logger: logger,
	}
}

// start registers fn, starts the cron loop and runs fn immediately
// without waiting for the first tick.
func (r *runner) start(ctx context.Context, fn func(context.Context)) error {
	if _, err := r.cron.AddFunc(r.spec, func() { fn(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", r.spec, err)
	}
	r.cron.Start()
	r.logger.Info("cron started", zap.String("spec", r.spec))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn(ctx)
	}()
	return nil
}

// stop waits for running jobs, including the startup run.
func (r *runner) stop() {
	<-r.cron.Stop().Done()
	r.wg.Wait()
	r.logger.Info("cron stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.s.Debugw(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}
