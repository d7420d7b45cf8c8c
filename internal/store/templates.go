package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

// TemplatesStore is the local mirror of the user's outreach templates. It
// follows the same optimistic write-through policy as ContactsStore, keyed
// by each template's ClientID.
type TemplatesStore struct {
	repo    repository.TemplateRepository
	session SessionSource
	logger  *zap.Logger
	locks   *keyLocks
	now     func() time.Time

	seedMu sync.Mutex

	mu        sync.RWMutex
	templates []model.Template
}

func NewTemplatesStore(repo repository.TemplateRepository, session SessionSource, logger *zap.Logger) *TemplatesStore {
	return &TemplatesStore{
		repo:      repo,
		session:   session,
		logger:    logger.Named("templates_store"),
		locks:     newKeyLocks(),
		now:       time.Now,
		templates: make([]model.Template, 0),
	}
}

// Load replaces local state with the server's list. Signed out, it empties
// the list and returns nil.
func (s *TemplatesStore) Load(ctx context.Context) error {
	userID := s.session.CurrentUserID()
	if userID == "" {
		s.mu.Lock()
		s.templates = make([]model.Template, 0)
		s.mu.Unlock()
		return nil
	}

	list, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Warn("load templates failed", zap.Error(err))
		return fmt.Errorf("load templates: %w", err)
	}
	for i := range list {
		list[i].ClientID = uuid.New()
	}

	s.mu.Lock()
	s.templates = list
	s.mu.Unlock()
	return nil
}

// Save adds t and returns the stored copy, which carries the ClientID to use
// for later edits. The error reports only the remote insert.
func (s *TemplatesStore) Save(ctx context.Context, t model.Template) (model.Template, error) {
	if err := validateTemplate(t); err != nil {
		return model.Template{}, err
	}

	t.ID = ""
	t.ClientID = uuid.New()
	if t.Channel == "" {
		t.Channel = model.ChannelEmail
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now

	key := t.ClientID.String()
	unlock := s.locks.Lock(key)
	defer unlock()

	s.mu.Lock()
	s.templates = append(s.templates, t)
	s.mu.Unlock()

	userID := s.session.CurrentUserID()
	if userID == "" {
		return t, ErrNoSession
	}

	id, err := s.repo.Insert(ctx, userID, t)
	if err != nil {
		s.logger.Warn("save template failed, keeping local copy", zap.String("name", t.Name), zap.Error(err))
		return t, fmt.Errorf("save template: %w", err)
	}

	t.ID = id
	s.mu.Lock()
	if i := s.indexLocked(t.ClientID); i >= 0 {
		s.templates[i].ID = id
	}
	s.mu.Unlock()
	return t, nil
}

// Update replaces the editable fields of the template with t.ClientID.
// It returns false, nil when no such template is held.
func (s *TemplatesStore) Update(ctx context.Context, t model.Template) (bool, error) {
	if err := validateTemplate(t); err != nil {
		return false, err
	}

	unlock := s.locks.Lock(t.ClientID.String())
	defer unlock()

	s.mu.Lock()
	i := s.indexLocked(t.ClientID)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	cur := &s.templates[i]
	cur.Name = t.Name
	cur.Subject = t.Subject
	cur.Body = t.Body
	cur.HighlightURL = t.HighlightURL
	if t.Channel != "" {
		cur.Channel = t.Channel
	}
	cur.UpdatedAt = s.now()
	updated := *cur
	s.mu.Unlock()

	userID := s.session.CurrentUserID()
	if userID == "" {
		return true, ErrNoSession
	}
	if updated.ID == "" {
		return true, ErrNotSynced
	}
	if err := s.repo.Update(ctx, userID, updated); err != nil {
		s.logger.Warn("update template failed", zap.String("id", updated.ID), zap.Error(err))
		return true, fmt.Errorf("update template: %w", err)
	}
	return true, nil
}

// Delete removes the template with clientID. Deleting an unknown template
// returns false, nil.
func (s *TemplatesStore) Delete(ctx context.Context, clientID uuid.UUID) (bool, error) {
	unlock := s.locks.Lock(clientID.String())
	defer unlock()

	s.mu.Lock()
	i := s.indexLocked(clientID)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	removed := s.templates[i]
	s.templates = slices.Delete(s.templates, i, i+1)
	s.mu.Unlock()

	// Never reached the server.
	if removed.ID == "" {
		return true, nil
	}

	userID := s.session.CurrentUserID()
	if userID == "" {
		return true, ErrNoSession
	}
	if err := s.repo.Delete(ctx, userID, removed.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("delete template failed", zap.String("id", removed.ID), zap.Error(err))
		return true, fmt.Errorf("delete template: %w", err)
	}
	return true, nil
}

// EnsureDefaults loads the user's templates and, when there are none, seeds
// DefaultTemplates in a single transaction. It returns how many were
// inserted. A non-empty list is treated as already seeded.
func (s *TemplatesStore) EnsureDefaults(ctx context.Context) (int, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	userID := s.session.CurrentUserID()
	if userID == "" {
		return 0, ErrNoSession
	}
	if err := s.Load(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	n := len(s.templates)
	s.mu.RUnlock()
	if n > 0 {
		return 0, nil
	}

	defaults := DefaultTemplates()
	ids, err := s.repo.InsertDefaults(ctx, userID, defaults)
	if err != nil {
		s.logger.Warn("seed default templates failed", zap.Error(err))
		return 0, fmt.Errorf("seed default templates: %w", err)
	}

	now := s.now()
	for i := range defaults {
		defaults[i].ID = ids[i]
		defaults[i].ClientID = uuid.New()
		defaults[i].CreatedAt, defaults[i].UpdatedAt = now, now
	}

	s.mu.Lock()
	s.templates = append(s.templates, defaults...)
	s.mu.Unlock()

	s.logger.Info("seeded default templates", zap.Int("count", len(defaults)))
	return len(defaults), nil
}

// Templates returns a copy of the local list.
func (s *TemplatesStore) Templates() []model.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.templates)
}

func (s *TemplatesStore) indexLocked(clientID uuid.UUID) int {
	return slices.IndexFunc(s.templates, func(t model.Template) bool { return t.ClientID == clientID })
}

func validateTemplate(t model.Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Msg: "Template name is required."}
	}
	if strings.TrimSpace(t.Body) == "" {
		return &ValidationError{Msg: "Template message is required."}
	}
	switch t.Channel {
	case "", model.ChannelEmail, model.ChannelText:
	default:
		return &ValidationError{Msg: fmt.Sprintf("Unknown channel %q.", t.Channel)}
	}
	return nil
}
