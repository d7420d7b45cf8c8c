package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/export"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

// SessionSource yields the signed-in user's ID, or "" when signed out.
type SessionSource interface {
	CurrentUserID() string
}

const removeConcurrency = 4

// ContactsStore is the local mirror of the user's saved coaches.
//
// Mutations apply locally first and then write through to the repository.
// The returned error describes only the remote write; the local change is
// kept either way and the next Load reconciles with the server.
type ContactsStore struct {
	repo    repository.CoachRepository
	session SessionSource
	logger  *zap.Logger
	locks   *keyLocks

	mu       sync.RWMutex
	contacts []model.SavedCoach
}

func NewContactsStore(repo repository.CoachRepository, session SessionSource, logger *zap.Logger) *ContactsStore {
	return &ContactsStore{
		repo:     repo,
		session:  session,
		logger:   logger.Named("contacts_store"),
		locks:    newKeyLocks(),
		contacts: make([]model.SavedCoach, 0),
	}
}

// Load replaces local state with the server's list. Signed out, it empties
// the list and returns nil.
func (s *ContactsStore) Load(ctx context.Context) error {
	userID := s.session.CurrentUserID()
	if userID == "" {
		s.mu.Lock()
		s.contacts = make([]model.SavedCoach, 0)
		s.mu.Unlock()
		return nil
	}

	list, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Warn("load contacts failed", zap.Error(err))
		return fmt.Errorf("load contacts: %w", err)
	}

	s.mu.Lock()
	s.contacts = list
	s.mu.Unlock()
	return nil
}

// Save adds coach unless a contact with the same (name, school) exists, in
// which case it returns false and nil.
func (s *ContactsStore) Save(ctx context.Context, coach model.CoachProfile) (bool, error) {
	key := coach.SavedKey()
	unlock := s.locks.Lock(key)
	defer unlock()

	s.mu.Lock()
	if s.indexLocked("", key) >= 0 {
		s.mu.Unlock()
		return false, nil
	}
	local := model.SavedCoach{CoachProfile: coach.WithLogoFallback()}
	s.contacts = append(s.contacts, local)
	s.mu.Unlock()

	userID := s.session.CurrentUserID()
	if userID == "" {
		return true, ErrNoSession
	}

	id, err := s.repo.Insert(ctx, userID, local)
	if err != nil {
		s.logger.Warn("save contact failed, keeping local copy",
			zap.String("name", coach.Name),
			zap.String("school", coach.School),
			zap.Error(err),
		)
		return true, fmt.Errorf("save contact: %w", err)
	}

	s.mu.Lock()
	if i := s.indexLocked("", key); i >= 0 {
		s.contacts[i].ID = id
	}
	s.mu.Unlock()
	return true, nil
}

// Remove deletes coach, matched by ID when it has one and by (name, school)
// otherwise. Removing a contact that is not in the list returns false, nil.
func (s *ContactsStore) Remove(ctx context.Context, coach model.SavedCoach) (bool, error) {
	key := coach.SavedKey()
	unlock := s.locks.Lock(key)
	defer unlock()

	s.mu.Lock()
	i := s.indexLocked(coach.ID, key)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	removed := s.contacts[i]
	s.contacts = slices.Delete(s.contacts, i, i+1)
	s.mu.Unlock()

	userID := s.session.CurrentUserID()
	if userID == "" {
		return true, ErrNoSession
	}

	var err error
	if removed.ID != "" {
		err = s.repo.Delete(ctx, userID, removed.ID)
	} else {
		err = s.repo.DeleteByKey(ctx, userID, removed.Name, removed.School)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("remove contact failed",
			zap.String("name", removed.Name),
			zap.String("school", removed.School),
			zap.Error(err),
		)
		return true, fmt.Errorf("remove contact: %w", err)
	}
	return true, nil
}

// RemoveMultiple removes each coach and returns how many left the local list.
// The error is the first remote failure, if any.
func (s *ContactsStore) RemoveMultiple(ctx context.Context, coaches []model.SavedCoach) (int, error) {
	var (
		g       errgroup.Group
		removed atomic.Int64
	)
	g.SetLimit(removeConcurrency)
	for _, c := range coaches {
		g.Go(func() error {
			applied, err := s.Remove(ctx, c)
			if applied {
				removed.Add(1)
			}
			return err
		})
	}
	err := g.Wait()
	return int(removed.Load()), err
}

// SetContacted flags whether the user has reached out to coach.
func (s *ContactsStore) SetContacted(ctx context.Context, coach model.SavedCoach, contacted bool) (bool, error) {
	key := coach.SavedKey()
	unlock := s.locks.Lock(key)
	defer unlock()

	s.mu.Lock()
	i := s.indexLocked(coach.ID, key)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.contacts[i].Contacted = contacted
	id := s.contacts[i].ID
	s.mu.Unlock()

	userID := s.session.CurrentUserID()
	if userID == "" {
		return true, ErrNoSession
	}
	if id == "" {
		return true, ErrNotSynced
	}
	if err := s.repo.SetContacted(ctx, userID, id, contacted); err != nil {
		s.logger.Warn("set contacted failed", zap.String("id", id), zap.Error(err))
		return true, fmt.Errorf("set contacted: %w", err)
	}
	return true, nil
}

// IsSaved is a case-insensitive (name, school) membership test.
func (s *ContactsStore) IsSaved(name, school string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked("", model.SavedKey(name, school)) >= 0
}

// Schools returns the distinct schools among saved contacts, sorted.
func (s *ContactsStore) Schools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.contacts))
	out := make([]string, 0)
	for _, c := range s.contacts {
		if _, ok := seen[c.School]; ok || c.School == "" {
			continue
		}
		seen[c.School] = struct{}{}
		out = append(out, c.School)
	}
	slices.Sort(out)
	return out
}

// Contacts returns a copy of the local list.
func (s *ContactsStore) Contacts() []model.SavedCoach {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.contacts)
}

// BySchool returns contacts at school, compared case-insensitively. An empty
// school returns every contact.
func (s *ContactsStore) BySchool(school string) []model.SavedCoach {
	if school == "" {
		return s.Contacts()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SavedCoach, 0)
	for _, c := range s.contacts {
		if strings.EqualFold(c.School, school) {
			out = append(out, c)
		}
	}
	return out
}

// Export writes the contacts at school (all when empty) as CSV.
func (s *ContactsStore) Export(w io.Writer, school string) error {
	return export.WriteCSV(w, s.BySchool(school))
}

// indexLocked matches on id when set, or on the saved key.
func (s *ContactsStore) indexLocked(id, key string) int {
	return slices.IndexFunc(s.contacts, func(c model.SavedCoach) bool {
		if id != "" && c.ID == id {
			return true
		}
		return c.SavedKey() == key
	})
}
