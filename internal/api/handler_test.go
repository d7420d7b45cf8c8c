package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/auth"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (f *fakeUsers) Create(_ context.Context, email, hash string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, repository.ErrConflict
		}
	}
	u := &model.User{ID: "user-" + strconv.Itoa(len(f.users)+1), Email: email, PasswordHash: hash}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.Job
}

func (f *fakeJobs) Create(_ context.Context, userID string, req model.SearchRequest) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := &model.Job{ID: uuid.New(), UserID: userID, Status: model.JobProcessing, Payload: req, CreatedAt: time.Now()}
	f.jobs[j.ID] = j
	c := *j
	return &c, nil
}

func (f *fakeJobs) Get(_ context.Context, userID string, id uuid.UUID) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.UserID != userID {
		return nil, repository.ErrNotFound
	}
	c := *j
	return &c, nil
}

func (f *fakeJobs) Complete(_ context.Context, id uuid.UUID, results []model.CoachProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = model.JobCompleted
	f.jobs[id].Results = results
	return nil
}

func (f *fakeJobs) Fail(_ context.Context, id uuid.UUID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = model.JobFailed
	f.jobs[id].ErrorMessage = &msg
	return nil
}

func (f *fakeJobs) FailStale(context.Context, time.Time) (int64, error) { return 0, nil }

type cacheRow struct {
	school, sport string
	results       []model.CoachProfile
	at            time.Time
}

type fakeCache struct {
	mu   sync.Mutex
	rows []cacheRow
}

func (f *fakeCache) Latest(_ context.Context, school, sport string, since time.Time) ([]model.CoachProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		r := f.rows[i]
		if strings.EqualFold(r.school, school) && strings.EqualFold(r.sport, sport) && r.at.After(since) {
			return r.results, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCache) Put(_ context.Context, school, sport string, results []model.CoachProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, cacheRow{school, sport, results, time.Now()})
	return nil
}

func (f *fakeCache) PurgeOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeAgent struct {
	calls   atomic.Int32
	err     error
	gate    chan struct{}
	coaches []model.CoachProfile
}

func (f *fakeAgent) Run(ctx context.Context, school, sport string) ([]model.CoachProfile, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.coaches, nil
}

// ─── Harness ─────────────────────────────────────────────────────────────────

type harness struct {
	h      *Handler
	mux    *http.ServeMux
	jobs   *fakeJobs
	cache  *fakeCache
	agent  *fakeAgent
	issuer *auth.Issuer
}

var dukeCoaches = []model.CoachProfile{
	{Name: "Mike Elko", Position: "Head Coach", Email: "melko@duke.edu", Phone: "(919) 684-2121", School: "Duke", Sport: "Football"},
	{Name: "No Contact", Position: "Analyst", School: "Duke", Sport: "Football"},
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	hs := &harness{
		jobs:   &fakeJobs{jobs: make(map[uuid.UUID]*model.Job)},
		cache:  &fakeCache{},
		agent:  &fakeAgent{coaches: dukeCoaches},
		issuer: iss,
	}
	hs.h = NewHandler(Deps{
		Jobs:     hs.jobs,
		Cache:    hs.cache,
		Accounts: auth.NewService(&fakeUsers{}, iss, zap.NewNop()),
		Issuer:   iss,
		Agent:    hs.agent,
		Logger:   zap.NewNop(),
	})
	hs.mux = http.NewServeMux()
	hs.h.RegisterRoutes(hs.mux)
	t.Cleanup(hs.h.Close)
	return hs
}

func (hs *harness) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := hs.issuer.Issue(userID, userID+"@example.com")
	require.NoError(t, err)
	return tok
}

func (hs *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	hs.mux.ServeHTTP(rec, req)
	return rec
}

var dukeReq = model.SearchRequest{SchoolName: "Duke", SportName: "Football"}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAuthRoutes(t *testing.T) {
	hs := newHarness(t)
	creds := auth.Credentials{Email: "athlete@example.com", Password: "password1"}

	rec := hs.do(http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.AccessToken)

	rec = hs.do(http.MethodPost, "/api/auth/signup", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrEmailTaken.Code)

	rec = hs.do(http.MethodPost, "/api/auth/signin", "", creds)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = hs.do(http.MethodPost, "/api/auth/signin", "", auth.Credentials{Email: creds.Email, Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrInvalidCredentials.Code)

	rec = hs.do(http.MethodPost, "/api/auth/signup", "", auth.Credentials{Email: "x@y.co", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/api/auth/signup", "", auth.Credentials{Email: "x@y.co", Password: strings.Repeat("p", auth.MaxPasswordBytes+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrPasswordTooLong.Code)

	rec = hs.do(http.MethodPost, "/api/auth/refresh", sess.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchRoutesRequireAuth(t *testing.T) {
	hs := newHarness(t)
	for _, path := range []string{"/api/search/coaches", "/api/search/coaches/dev"} {
		rec := hs.do(http.MethodPost, path, "", dukeReq)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := hs.do(http.MethodGet, "/api/search/status/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchCoaches_Validation(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodPost, "/api/search/coaches", hs.token(t, "user-1"), model.SearchRequest{SchoolName: "Duke"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, hs.agent.calls.Load())
}

func TestSearchCoaches_CacheHit(t *testing.T) {
	hs := newHarness(t)
	require.NoError(t, hs.cache.Put(context.Background(), "Duke", "Football", dukeCoaches[:1]))

	rec := hs.do(http.MethodPost, "/api/search/coaches", hs.token(t, "user-1"), model.SearchRequest{SchoolName: "duke", SportName: "FOOTBALL"})
	require.Equal(t, http.StatusOK, rec.Code)
	var got []model.CoachProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.Zero(t, hs.agent.calls.Load())
	assert.Empty(t, hs.jobs.jobs)
}

func TestSearchCoaches_QueuesJobAndCompletes(t *testing.T) {
	hs := newHarness(t)
	tok := hs.token(t, "user-1")

	rec := hs.do(http.MethodPost, "/api/search/coaches", tok, dukeReq)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var jr model.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jr))
	assert.Equal(t, model.JobProcessing, jr.Status)

	hs.h.Wait()

	rec = hs.do(http.MethodGet, "/api/search/status/"+jr.JobID.String(), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Len(t, job.Results, 2)

	// another user cannot see it
	rec = hs.do(http.MethodGet, "/api/search/status/"+jr.JobID.String(), hs.token(t, "user-2"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// second search is served from the cache
	rec = hs.do(http.MethodPost, "/api/search/coaches", tok, dukeReq)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), hs.agent.calls.Load())
}

func TestSearchCoaches_AgentFailureFailsJob(t *testing.T) {
	hs := newHarness(t)
	hs.agent.err = errors.New("agent returned 500: boom")
	tok := hs.token(t, "user-1")

	rec := hs.do(http.MethodPost, "/api/search/coaches", tok, dukeReq)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var jr model.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jr))
	hs.h.Wait()

	job, err := hs.jobs.Get(context.Background(), "user-1", jr.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "boom")
	assert.Empty(t, hs.cache.rows)
}

func TestClose_CancelsRunningJobs(t *testing.T) {
	hs := newHarness(t)
	hs.agent.gate = make(chan struct{})

	rec := hs.do(http.MethodPost, "/api/search/coaches", hs.token(t, "user-1"), dukeReq)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var jr model.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jr))

	hs.h.Close()

	job, err := hs.jobs.Get(context.Background(), "user-1", jr.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.Status)
}

func TestJobStatus_BadID(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodGet, "/api/search/status/not-a-uuid", hs.token(t, "user-1"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchCoachesDev(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodPost, "/api/search/coaches/dev", hs.token(t, "user-1"), dukeReq)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.CoachProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Mike Elko", got[0].Name)
	assert.Equal(t, model.DefaultLogoURL, got[0].SchoolLogoURL)
}

func TestSearchCoachesDev_SharedRunSurvivesCallerLeaving(t *testing.T) {
	hs := newHarness(t)
	hs.agent.gate = make(chan struct{})
	tok := hs.token(t, "user-1")

	send := func(ctx context.Context) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(dukeReq))
		req := httptest.NewRequest(http.MethodPost, "/api/search/coaches/dev", &buf).WithContext(ctx)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		hs.mux.ServeHTTP(rec, req)
		return rec
	}

	leaderCtx, leave := context.WithCancel(context.Background())
	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		send(leaderCtx)
	}()
	require.Eventually(t, func() bool { return hs.agent.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	followerDone := make(chan *httptest.ResponseRecorder, 1)
	go func() { followerDone <- send(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	leave()
	select {
	case <-leaderDone:
	case <-time.After(time.Second):
		t.Fatal("leader did not return after its context was cancelled")
	}

	close(hs.agent.gate)
	var rec *httptest.ResponseRecorder
	select {
	case rec = <-followerDone:
	case <-time.After(time.Second):
		t.Fatal("follower did not return")
	}
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got []model.CoachProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.Equal(t, int32(1), hs.agent.calls.Load())
}

func TestSearchCoachesDev_AgentError(t *testing.T) {
	hs := newHarness(t)
	hs.agent.err = errors.New("dial tcp: connection refused")
	rec := hs.do(http.MethodPost, "/api/search/coaches/dev", hs.token(t, "user-1"), dukeReq)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t,
		cacheKey(model.SearchRequest{SchoolName: " Duke ", SportName: "Football"}),
		cacheKey(model.SearchRequest{SchoolName: "duke", SportName: "FOOTBALL"}),
	)
}
