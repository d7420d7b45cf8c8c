package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultProbeTimeout = 5 * time.Second

// Pinger checks that the search service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivitySink receives each probe's outcome.
type ConnectivitySink interface {
	Set(connected bool)
}

// Monitor probes the search service on a schedule and reports the result.
type Monitor struct {
	r       *runner
	pinger  Pinger
	sink    ConnectivitySink
	timeout time.Duration
	logger  *zap.Logger
}

func NewMonitor(pinger Pinger, sink ConnectivitySink, spec string, timeout time.Duration, logger *zap.Logger) *Monitor {
	logger = logger.Named("connectivity")
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Monitor{
		r:       newRunner(spec, logger),
		pinger:  pinger,
		sink:    sink,
		timeout: timeout,
		logger:  logger,
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	return m.r.start(ctx, func(ctx context.Context) { m.Probe(ctx) })
}

func (m *Monitor) Stop() {
	m.r.stop()
}

// Probe pings once, reports the outcome to the sink and returns it. A
// cancelled ctx reports nothing.
func (m *Monitor) Probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.pinger.Ping(pctx)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		m.logger.Debug("probe failed", zap.Error(err))
	}
	m.sink.Set(err == nil)
	return err == nil
}
