package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/search"
)

// Searcher runs a synchronous coach search.
type Searcher interface {
	Search(ctx context.Context, school, sport string) ([]model.CoachProfile, error)
}

// AsyncSearcher submits a background search and reports on it.
type AsyncSearcher interface {
	Submit(ctx context.Context, school, sport string) (*search.SubmitResult, error)
	Status(ctx context.Context, jobID uuid.UUID) (*model.Job, error)
}

// SavedChecker answers whether a coach is already a saved contact.
type SavedChecker interface {
	IsSaved(name, school string) bool
}

// CoachSaver persists a search result as a contact.
type CoachSaver interface {
	Save(ctx context.Context, coach model.CoachProfile) (bool, error)
}

// StageTiming controls the cosmetic progress pacing and the request ceiling.
// Both stage offsets are measured from the start of the search.
type StageTiming struct {
	ExtractingAfter  time.Duration
	NormalizingAfter time.Duration
	Timeout          time.Duration
	PollInterval     time.Duration
}

// DefaultStageTiming matches the search service's observed latency profile.
func DefaultStageTiming() StageTiming {
	return StageTiming{
		ExtractingAfter:  4 * time.Second,
		NormalizingAfter: 8 * time.Second,
		Timeout:          search.DefaultTimeout,
		PollInterval:     3 * time.Second,
	}
}

// SearchState is a point-in-time copy of the search store.
type SearchState struct {
	School   string
	Sport    string
	Stage    Stage
	Results  []model.CoachProfile
	Error    string
	Selected []int
	Busy     bool
}

// SearchStore runs one coach search at a time and holds its results and
// the user's selection over them.
//
// Listeners registered with Subscribe run synchronously and never see a
// state older than one they already received. They may read from the store
// but must not call its mutating methods.
type SearchStore struct {
	searcher Searcher
	async    AsyncSearcher
	saved    SavedChecker
	saver    CoachSaver
	timing   StageTiming
	logger   *zap.Logger

	mu       sync.Mutex
	school   string
	sport    string
	stage    Stage
	results  []model.CoachProfile
	errMsg   string
	selected map[int]struct{}
	busy     bool
	gen      uint64
	version  uint64
	cancel   context.CancelFunc

	notifyMu  sync.Mutex
	listeners map[int]func(SearchState)
	nextID    int
	delivered uint64
}

// SearchOption configures a SearchStore.
type SearchOption func(*SearchStore)

// WithAsync switches Search to submit-and-poll mode.
func WithAsync(a AsyncSearcher) SearchOption {
	return func(s *SearchStore) { s.async = a }
}

// WithTiming overrides DefaultStageTiming.
func WithTiming(t StageTiming) SearchOption {
	return func(s *SearchStore) { s.timing = t }
}

// NewSearchStore builds a SearchStore. saved and saver are usually the same
// ContactsStore.
func NewSearchStore(searcher Searcher, saved SavedChecker, saver CoachSaver, logger *zap.Logger, opts ...SearchOption) *SearchStore {
	s := &SearchStore{
		searcher:  searcher,
		saved:     saved,
		saver:     saver,
		timing:    DefaultStageTiming(),
		logger:    logger.Named("search_store"),
		stage:     StageIdle,
		selected:  make(map[int]struct{}),
		listeners: make(map[int]func(SearchState)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQuery stores the school and sport for the next Search.
func (s *SearchStore) SetQuery(school, sport string) {
	s.mu.Lock()
	s.school, s.sport = school, sport
	s.publishLocked()
}

// ValidateQuery returns a *ValidationError when school or sport is blank.
func ValidateQuery(school, sport string) error {
	if strings.TrimSpace(school) == "" || strings.TrimSpace(sport) == "" {
		return &ValidationError{Msg: "Enter both a school and a sport to search."}
	}
	return nil
}

// Search runs the current query. It returns a *ValidationError without
// touching state when school or sport is blank, ErrSearchInFlight when a
// search is already pending, and ErrSearchReset when Reset abandoned this
// call. Network failures move the store to StageError and are also returned.
func (s *SearchStore) Search(ctx context.Context) error {
	s.mu.Lock()
	school, sport := strings.TrimSpace(s.school), strings.TrimSpace(s.sport)
	if err := ValidateQuery(school, sport); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.busy {
		s.mu.Unlock()
		return ErrSearchInFlight
	}

	s.busy = true
	s.gen++
	gen := s.gen
	s.results = nil
	s.errMsg = ""
	clear(s.selected)
	s.setStageLocked(StageDiscovering)

	reqCtx, cancel := context.WithTimeout(ctx, s.timing.Timeout)
	s.cancel = cancel
	s.publishLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.pace(gen, stop, done)

	coaches, err := s.fetch(reqCtx, school, sport)

	close(stop)
	<-done
	cancel()

	s.mu.Lock()
	s.busy = false
	s.cancel = nil
	if s.gen != gen {
		s.publishLocked()
		return ErrSearchReset
	}

	if err != nil {
		s.results = nil
		s.errMsg = describeSearchError(err)
		s.setStageLocked(StageError)
		s.publishLocked()
		s.logger.Warn("search failed",
			zap.String("school", school),
			zap.String("sport", sport),
			zap.Error(err),
		)
		return err
	}

	s.results = search.Clean(coaches)
	s.setStageLocked(StageComplete)
	n := len(s.results)
	s.publishLocked()
	s.logger.Info("search complete",
		zap.String("school", school),
		zap.String("sport", sport),
		zap.Int("results", n),
	)
	return nil
}

// pace advances the cosmetic stages until stop is closed.
func (s *SearchStore) pace(gen uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	steps := []struct {
		at       time.Duration
		from, to Stage
	}{
		{s.timing.ExtractingAfter, StageDiscovering, StageExtracting},
		{s.timing.NormalizingAfter, StageExtracting, StageNormalizing},
	}

	start := time.Now()
	for _, step := range steps {
		t := time.NewTimer(max(step.at-time.Since(start), 0))
		select {
		case <-stop:
			t.Stop()
			return
		case <-t.C:
		}
		s.advance(gen, step.from, step.to)
	}
}

func (s *SearchStore) advance(gen uint64, from, to Stage) {
	s.mu.Lock()
	if s.gen != gen || s.stage != from {
		s.mu.Unlock()
		return
	}
	s.setStageLocked(to)
	s.publishLocked()
}

func (s *SearchStore) fetch(ctx context.Context, school, sport string) ([]model.CoachProfile, error) {
	if s.async == nil {
		return s.searcher.Search(ctx, school, sport)
	}

	res, err := s.async.Submit(ctx, school, sport)
	if err != nil {
		return nil, err
	}
	if res.Job == nil {
		return res.Coaches, nil
	}

	ticker := time.NewTicker(s.timing.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := s.async.Status(ctx, res.Job.JobID)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case model.JobCompleted:
			return job.Results, nil
		case model.JobFailed:
			msg := "unknown error"
			if job.ErrorMessage != nil && *job.ErrorMessage != "" {
				msg = *job.ErrorMessage
			}
			return nil, &jobFailedError{msg: msg}
		}
	}
}

// Reset returns the store to idle and clears query, results, error and
// selection. A pending Search is cancelled; it keeps Busy true until it
// unwinds and then returns ErrSearchReset.
func (s *SearchStore) Reset() {
	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	s.school, s.sport = "", ""
	s.results = nil
	s.errMsg = ""
	clear(s.selected)
	s.setStageLocked(StageIdle)
	s.publishLocked()
}

// Busy reports whether a Search call is still outstanding.
func (s *SearchStore) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Snapshot returns a copy of the current state.
func (s *SearchStore) Snapshot() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ToggleSelection flips membership of result i. Out-of-range indices are
// ignored and report false.
func (s *SearchStore) ToggleSelection(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.results) {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.selected[i]; ok {
		delete(s.selected, i)
	} else {
		s.selected[i] = struct{}{}
	}
	s.publishLocked()
	return true
}

func (s *SearchStore) SelectAll() {
	s.mu.Lock()
	for i := range s.results {
		s.selected[i] = struct{}{}
	}
	s.publishLocked()
}

func (s *SearchStore) ClearSelection() {
	s.mu.Lock()
	clear(s.selected)
	s.publishLocked()
}

func (s *SearchStore) IsSelected(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[i]
	return ok
}

// Selected returns the selected indices in ascending order.
func (s *SearchStore) Selected() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

// IsSaved reports whether result i is already a saved contact.
func (s *SearchStore) IsSaved(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.results) {
		s.mu.Unlock()
		return false
	}
	c := s.results[i]
	s.mu.Unlock()
	return s.saved.IsSaved(c.Name, c.School)
}

// SaveSelected saves every selected result and clears the selection. It
// returns how many new contacts were added locally; err joins any remote
// failures.
func (s *SearchStore) SaveSelected(ctx context.Context) (int, error) {
	s.mu.Lock()
	picked := make([]model.CoachProfile, 0, len(s.selected))
	for _, i := range s.selectedLocked() {
		picked = append(picked, s.results[i])
	}
	clear(s.selected)
	s.publishLocked()

	var (
		added int
		errs  []error
	)
	for _, c := range picked {
		applied, err := s.saver.Save(ctx, c)
		if applied {
			added++
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return added, errors.Join(errs...)
}

// Subscribe registers fn for state changes and returns a func that removes it.
func (s *SearchStore) Subscribe(fn func(SearchState)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *SearchStore) setStageLocked(to Stage) {
	if !IsStageTransitionAllowed(s.stage, to) {
		s.logger.Error("invalid stage transition",
			zap.String("from", string(s.stage)),
			zap.String("to", string(to)),
		)
	}
	s.stage = to
}

// publishLocked snapshots state, releases s.mu and notifies listeners. A
// snapshot older than one already delivered is dropped.
func (s *SearchStore) publishLocked() {
	s.version++
	version := s.version
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version
	for _, fn := range s.listeners {
		fn(state)
	}
}

func (s *SearchStore) snapshotLocked() SearchState {
	return SearchState{
		School:   s.school,
		Sport:    s.sport,
		Stage:    s.stage,
		Results:  slices.Clone(s.results),
		Error:    s.errMsg,
		Selected: s.selectedLocked(),
		Busy:     s.busy,
	}
}

func (s *SearchStore) selectedLocked() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}
