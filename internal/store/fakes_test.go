package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

var errRemote = errors.New("connection refused")

type fakeSession struct{ userID string }

func (f fakeSession) CurrentUserID() string { return f.userID }

type fakeCoachRepo struct {
	mu        sync.Mutex
	rows      []model.SavedCoach
	nextID    int
	insertErr error
	deleteErr error

	// insertGate, when set, blocks Insert until it is closed.
	insertGate    chan struct{}
	insertStarted chan struct{}

	inserts      int
	deletes      []string
	deletesByKey []string
	contacted    map[string]bool
}

func (f *fakeCoachRepo) List(_ context.Context, userID string) ([]model.SavedCoach, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.rows)
	slices.SortFunc(out, func(a, b model.SavedCoach) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (f *fakeCoachRepo) Insert(_ context.Context, userID string, c model.SavedCoach) (string, error) {
	if f.insertStarted != nil {
		close(f.insertStarted)
	}
	if f.insertGate != nil {
		<-f.insertGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	c.ID = fmt.Sprintf("coach-%d", f.nextID)
	f.rows = append(f.rows, c)
	return c.ID, nil
}

func (f *fakeCoachRepo) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.rows = slices.DeleteFunc(f.rows, func(c model.SavedCoach) bool { return c.ID == id })
	return nil
}

func (f *fakeCoachRepo) DeleteByKey(_ context.Context, userID, name, school string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := model.SavedKey(name, school)
	f.deletesByKey = append(f.deletesByKey, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.rows = slices.DeleteFunc(f.rows, func(c model.SavedCoach) bool { return c.SavedKey() == key })
	return nil
}

func (f *fakeCoachRepo) SetContacted(_ context.Context, userID, id string, contacted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contacted == nil {
		f.contacted = make(map[string]bool)
	}
	f.contacted[id] = contacted
	return nil
}

type fakeTemplateRepo struct {
	mu         sync.Mutex
	rows       []model.Template
	nextID     int
	insertErr  error
	defaultErr error
	updateErr  error

	defaultCalls int
	updates      []model.Template
	deletes      []string
}

func (f *fakeTemplateRepo) List(_ context.Context, userID string) ([]model.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.rows), nil
}

func (f *fakeTemplateRepo) Insert(_ context.Context, userID string, t model.Template) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	return f.insertLocked(t), nil
}

func (f *fakeTemplateRepo) InsertDefaults(_ context.Context, userID string, ts []model.Template) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultCalls++
	if f.defaultErr != nil {
		return nil, f.defaultErr
	}
	ids := make([]string, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, f.insertLocked(t))
	}
	return ids, nil
}

func (f *fakeTemplateRepo) insertLocked(t model.Template) string {
	f.nextID++
	t.ID = fmt.Sprintf("tpl-%d", f.nextID)
	f.rows = append(f.rows, t)
	return t.ID
}

func (f *fakeTemplateRepo) Update(_ context.Context, userID string, t model.Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, t)
	if f.updateErr != nil {
		return f.updateErr
	}
	i := slices.IndexFunc(f.rows, func(r model.Template) bool { return r.ID == t.ID })
	if i < 0 {
		return repository.ErrNotFound
	}
	f.rows[i] = t
	return nil
}

func (f *fakeTemplateRepo) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	f.rows = slices.DeleteFunc(f.rows, func(r model.Template) bool { return r.ID == id })
	return nil
}

// searchFunc adapts a func to Searcher.
type searchFunc func(ctx context.Context, school, sport string) ([]model.CoachProfile, error)

func (f searchFunc) Search(ctx context.Context, school, sport string) ([]model.CoachProfile, error) {
	return f(ctx, school, sport)
}

// blockingSearcher waits for release or ctx cancellation.
type blockingSearcher struct {
	started chan struct{}
	release chan []model.CoachProfile
	once    sync.Once
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{started: make(chan struct{}), release: make(chan []model.CoachProfile, 1)}
}

func (b *blockingSearcher) Search(ctx context.Context, school, sport string) ([]model.CoachProfile, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-b.release:
		return res, nil
	}
}
