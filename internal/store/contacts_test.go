package store

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/export"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

func newTestContacts(repo *fakeCoachRepo) *ContactsStore {
	return NewContactsStore(repo, fakeSession{userID: "user-1"}, zap.NewNop())
}

func coach(name, school string) model.CoachProfile {
	return model.CoachProfile{Name: name, Position: "Head Coach", Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.edu", School: school, Sport: "Football"}
}

func TestContacts_LoadWithoutSessionIsEmpty(t *testing.T) {
	repo := &fakeCoachRepo{rows: []model.SavedCoach{{ID: "x", CoachProfile: coach("A", "B")}}}
	s := NewContactsStore(repo, fakeSession{}, zap.NewNop())

	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Contacts())
}

func TestContacts_LoadOrdersByName(t *testing.T) {
	repo := &fakeCoachRepo{rows: []model.SavedCoach{
		{ID: "2", CoachProfile: coach("Zed Adams", "Duke")},
		{ID: "1", CoachProfile: coach("Amy Brown", "UNC")},
	}}
	s := newTestContacts(repo)

	require.NoError(t, s.Load(context.Background()))
	got := s.Contacts()
	require.Len(t, got, 2)
	assert.Equal(t, "Amy Brown", got[0].Name)
}

func TestContacts_SaveAssignsServerID(t *testing.T) {
	repo := &fakeCoachRepo{}
	s := newTestContacts(repo)

	applied, err := s.Save(context.Background(), elko)
	require.NoError(t, err)
	assert.True(t, applied)

	got := s.Contacts()
	require.Len(t, got, 1)
	assert.Equal(t, "coach-1", got[0].ID)
	assert.Equal(t, model.DefaultLogoURL, got[0].SchoolLogoURL)
}

func TestContacts_SaveDuplicateKeyIsNoop(t *testing.T) {
	repo := &fakeCoachRepo{}
	s := newTestContacts(repo)

	_, err := s.Save(context.Background(), elko)
	require.NoError(t, err)

	dup := elko
	dup.Name = "MIKE ELKO"
	dup.School = "duke"
	dup.Position = "Defensive Coordinator"
	applied, err := s.Save(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Len(t, s.Contacts(), 1)
	assert.Equal(t, 1, repo.inserts)
}

func TestContacts_SaveRemoteFailureKeepsLocalCopy(t *testing.T) {
	repo := &fakeCoachRepo{insertErr: errRemote}
	s := newTestContacts(repo)

	applied, err := s.Save(context.Background(), elko)
	assert.True(t, applied)
	require.ErrorIs(t, err, errRemote)

	got := s.Contacts()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ID)
	assert.True(t, s.IsSaved("Mike Elko", "Duke"))
}

func TestContacts_SaveWithoutSession(t *testing.T) {
	repo := &fakeCoachRepo{}
	s := NewContactsStore(repo, fakeSession{}, zap.NewNop())

	applied, err := s.Save(context.Background(), elko)
	assert.True(t, applied)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Len(t, s.Contacts(), 1)
	assert.Zero(t, repo.inserts)
}

func TestContacts_RemoveTwice(t *testing.T) {
	repo := &fakeCoachRepo{}
	s := newTestContacts(repo)
	_, err := s.Save(context.Background(), elko)
	require.NoError(t, err)
	saved := s.Contacts()[0]

	applied, err := s.Remove(context.Background(), saved)
	require.NoError(t, err)
	assert.True(t, applied)
	after := s.Contacts()

	applied, err = s.Remove(context.Background(), saved)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, after, s.Contacts())
	assert.Equal(t, []string{"coach-1"}, repo.deletes)
}

func TestContacts_RemoveUnsyncedDeletesByKey(t *testing.T) {
	repo := &fakeCoachRepo{insertErr: errRemote}
	s := newTestContacts(repo)
	_, _ = s.Save(context.Background(), elko)

	applied, err := s.Remove(context.Background(), model.SavedCoach{CoachProfile: model.CoachProfile{Name: "mike elko", School: "DUKE"}})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Empty(t, s.Contacts())
	assert.Empty(t, repo.deletes)
	assert.Equal(t, []string{model.SavedKey("Mike Elko", "Duke")}, repo.deletesByKey)
}

func TestContacts_RemoveRemoteFailureStaysRemoved(t *testing.T) {
	repo := &fakeCoachRepo{deleteErr: errRemote}
	s := newTestContacts(repo)
	_, err := s.Save(context.Background(), elko)
	require.NoError(t, err)

	applied, err := s.Remove(context.Background(), s.Contacts()[0])
	assert.True(t, applied)
	assert.ErrorIs(t, err, errRemote)
	assert.False(t, s.IsSaved("Mike Elko", "Duke"))
}

func TestContacts_RemoveMultiple(t *testing.T) {
	repo := &fakeCoachRepo{}
	s := newTestContacts(repo)
	for _, name := range []string{"A One", "B Two", "C Three", "D Four", "E Five", "F Six"} {
		_, err := s.Save(context.Background(), coach(name, "Duke"))
		require.NoError(t, err)
	}
	all := s.Contacts()

	toRemove := append(all[:4:4], model.SavedCoach{CoachProfile: coach("Not Saved", "Duke")})
	n, err := s.RemoveMultiple(context.Background(), toRemove)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, s.Contacts(), 2)
	assert.Len(t, repo.deletes, 4)
	assert.Zero(t, s.locks.size())
}

func TestContacts_RemoveWaitsForPendingSave(t *testing.T) {
	repo := &fakeCoachRepo{insertGate: make(chan struct{}), insertStarted: make(chan struct{})}
	s := newTestContacts(repo)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.Save(context.Background(), elko)
		assert.NoError(t, err)
	}()
	<-repo.insertStarted

	go func() {
		defer wg.Done()
		// Caller only knows the key; the ID is still being assigned.
		applied, err := s.Remove(context.Background(), model.SavedCoach{CoachProfile: elko})
		assert.NoError(t, err)
		assert.True(t, applied)
	}()

	require.Eventually(t, func() bool {
		s.locks.mu.Lock()
		defer s.locks.mu.Unlock()
		l, ok := s.locks.locks[elko.SavedKey()]
		return ok && l.refs == 2
	}, time.Second, time.Millisecond)

	close(repo.insertGate)
	wg.Wait()

	assert.Empty(t, s.Contacts())
	assert.Equal(t, []string{"coach-1"}, repo.deletes)
	assert.Empty(t, repo.deletesByKey)
	assert.Empty(t, repo.rows)
}

func TestContacts_SchoolsDistinctSorted(t *testing.T) {
	s := newTestContacts(&fakeCoachRepo{})
	for _, c := range []model.CoachProfile{
		coach("A", "UNC"), coach("B", "Duke"), coach("C", "UNC"), coach("D", "Clemson"),
	} {
		_, err := s.Save(context.Background(), c)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Clemson", "Duke", "UNC"}, s.Schools())
	assert.Len(t, s.BySchool("unc"), 2)
	assert.Len(t, s.BySchool(""), 4)
}

func TestContacts_SetContacted(t *testing.T) {
	repo := &fakeCoachRepo{}
	s := newTestContacts(repo)
	_, err := s.Save(context.Background(), elko)
	require.NoError(t, err)

	applied, err := s.SetContacted(context.Background(), s.Contacts()[0], true)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, s.Contacts()[0].Contacted)
	assert.True(t, repo.contacted["coach-1"])

	applied, err = s.SetContacted(context.Background(), model.SavedCoach{CoachProfile: coach("Nobody", "Duke")}, true)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestContacts_SetContactedUnsynced(t *testing.T) {
	s := newTestContacts(&fakeCoachRepo{insertErr: errRemote})
	_, _ = s.Save(context.Background(), elko)

	applied, err := s.SetContacted(context.Background(), model.SavedCoach{CoachProfile: elko}, true)
	assert.True(t, applied)
	assert.ErrorIs(t, err, ErrNotSynced)
	assert.True(t, s.Contacts()[0].Contacted)
}

func TestContacts_Export(t *testing.T) {
	s := newTestContacts(&fakeCoachRepo{})
	_, err := s.Save(context.Background(), elko)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), coach("Hubert Davis", "UNC"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf, "Duke"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Mike Elko,"))

	assert.ErrorIs(t, s.Export(&buf, "Clemson"), export.ErrEmpty)
}
