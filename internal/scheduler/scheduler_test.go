package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

// ─── Housekeeping ────────────────────────────────────────────────────────────

type fakeJobs struct {
	mu     sync.Mutex
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakeJobs) Create(context.Context, string, model.SearchRequest) (*model.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeJobs) Get(context.Context, string, uuid.UUID) (*model.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeJobs) Complete(context.Context, uuid.UUID, []model.CoachProfile) error { return nil }
func (f *fakeJobs) Fail(context.Context, uuid.UUID, string) error                   { return nil }

func (f *fakeJobs) FailStale(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

type fakeCache struct {
	mu     sync.Mutex
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakeCache) Latest(context.Context, string, string, time.Time) ([]model.CoachProfile, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCache) Put(context.Context, string, string, []model.CoachProfile) error { return nil }

func (f *fakeCache) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 5, nil
}

func (f *fakeCache) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweep_UsesWindows(t *testing.T) {
	jobs, cache := &fakeJobs{}, &fakeCache{}
	h := NewHousekeeper(jobs, cache, "@every 1h", 24*time.Hour, 15*time.Minute, zap.NewNop())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	require.NoError(t, h.Sweep(context.Background()))
	assert.Equal(t, now.Add(-24*time.Hour), cache.cutoff)
	assert.Equal(t, now.Add(-15*time.Minute), jobs.cutoff)
}

func TestSweep_RunsBothStepsOnFailure(t *testing.T) {
	jobs := &fakeJobs{}
	cache := &fakeCache{err: errors.New("connection reset")}
	h := NewHousekeeper(jobs, cache, "@every 1h", time.Hour, time.Minute, zap.NewNop())

	err := h.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge search cache")
	assert.Equal(t, 1, jobs.calls)
}

func TestHousekeeper_StartRunsImmediately(t *testing.T) {
	jobs, cache := &fakeJobs{}, &fakeCache{}
	h := NewHousekeeper(jobs, cache, "@every 1h", time.Hour, time.Minute, zap.NewNop())

	require.NoError(t, h.Start(context.Background()))
	assert.Eventually(t, func() bool { return cache.callCount() == 1 }, time.Second, 5*time.Millisecond)
	h.Stop()
}

func TestHousekeeper_BadSpec(t *testing.T) {
	h := NewHousekeeper(&fakeJobs{}, &fakeCache{}, "every hour", time.Hour, time.Minute, zap.NewNop())
	assert.Error(t, h.Start(context.Background()))
}

// ─── Connectivity ────────────────────────────────────────────────────────────

type fakePinger struct {
	err   atomic.Value
	calls atomic.Int32
}

type pingResult struct{ err error }

func (p *fakePinger) set(err error) { p.err.Store(pingResult{err}) }

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	if r, ok := p.err.Load().(pingResult); ok {
		return r.err
	}
	return nil
}

type recordingSink struct {
	mu   sync.Mutex
	seen []bool
}

func (s *recordingSink) Set(c bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, c)
}

func (s *recordingSink) values() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.seen...)
}

func TestProbe_ReportsOutcome(t *testing.T) {
	p := &fakePinger{}
	sink := &recordingSink{}
	m := NewMonitor(p, sink, "@every 15s", time.Second, zap.NewNop())

	assert.True(t, m.Probe(context.Background()))
	p.set(errors.New("dial tcp: connection refused"))
	assert.False(t, m.Probe(context.Background()))
	p.set(nil)
	assert.True(t, m.Probe(context.Background()))

	assert.Equal(t, []bool{true, false, true}, sink.values())
}

func TestProbe_CancelledContextReportsNothing(t *testing.T) {
	p := &fakePinger{}
	p.set(context.Canceled)
	sink := &recordingSink{}
	m := NewMonitor(p, sink, "@every 15s", time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, m.Probe(ctx))
	assert.Empty(t, sink.values())
}

func TestMonitor_StartProbesImmediately(t *testing.T) {
	p := &fakePinger{}
	p.set(errors.New("unreachable"))
	sink := &recordingSink{}
	m := NewMonitor(p, sink, "@every 1h", time.Second, zap.NewNop())

	require.NoError(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool { return len(sink.values()) == 1 }, time.Second, 5*time.Millisecond)
	m.Stop()
	assert.Equal(t, []bool{false}, sink.values())
}
