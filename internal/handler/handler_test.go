package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mergington/activities/internal/model"
	"github.com/mergington/activities/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	reg    *registry.Registry
	router http.Handler
}

func newTestServer(t *testing.T, opts ...registry.Option) *testServer {
	t.Helper()
	seed, err := registry.DefaultSeed()
	require.NoError(t, err)
	reg, err := registry.New(seed, opts...)
	require.NoError(t, err)
	return &testServer{
		reg:    reg,
		router: NewRouter(reg, discardLogger(), RouterConfig{}),
	}
}

func (s *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) activities(t *testing.T) map[string]model.Activity {
	t.Helper()
	w := s.do(t, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]model.Activity
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Message
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func TestListActivities(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	require.Contains(t, raw, "Chess Club")
	for name, fields := range raw {
		for _, key := range []string{"description", "schedule", "max_participants", "participants"} {
			assert.Contains(t, fields, key, "activity %q", name)
		}
	}
}

func TestListActivities_InitialParticipants(t *testing.T) {
	s := newTestServer(t)

	chess := s.activities(t)["Chess Club"].Participants
	assert.Len(t, chess, 2)
	assert.Contains(t, chess, "michael@mergington.edu")
}

func TestListActivities_EmptyRosterIsArray(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"participants":[]`)
}

func TestSignup(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/activities/Basketball%20Team/signup?email=student@mergington.edu")
	require.Equal(t, http.StatusOK, w.Code)

	msg := decodeMessage(t, w)
	assert.Equal(t, "Signed up student@mergington.edu for Basketball Team", msg)

	participants := s.activities(t)["Basketball Team"].Participants
	assert.Equal(t, []string{"student@mergington.edu"}, participants)
}

func TestSignup_IncreasesCount(t *testing.T) {
	s := newTestServer(t)

	before := len(s.activities(t)["Programming Class"].Participants)
	w := s.do(t, http.MethodPost, "/activities/Programming%20Class/signup?email=student@mergington.edu")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, s.activities(t)["Programming Class"].Participants, before+1)
}

func TestSignup_Twice(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/activities/Drama%20Club/signup?email=student@mergington.edu")
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t,
		[]string{"student@mergington.edu", "student@mergington.edu"},
		s.activities(t)["Drama Club"].Participants)
}

func TestSignup_UnknownActivity(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/activities/NonExistent%20Activity/signup?email=student@mergington.edu")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Activity not found", decodeError(t, w))
}

func TestSignup_MissingEmail(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/activities/Chess%20Club/signup")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, s.activities(t)["Chess Club"].Participants, 2)
}

func TestSignup_PolicyConflicts(t *testing.T) {
	s := newTestServer(t, registry.WithPolicy(registry.Policy{
		EnforceCapacity:  true,
		RejectDuplicates: true,
	}))

	w := s.do(t, http.MethodPost, "/activities/Chess%20Club/signup?email=michael@mergington.edu")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Student is already signed up for this activity", decodeError(t, w))

	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("activities:\n  - name: Tiny\n    max_participants: 1\n    participants: [a@mergington.edu]\n"), 0o644))
	seed, err := registry.LoadSeed(seedPath)
	require.NoError(t, err)
	reg, err := registry.New(seed, registry.WithPolicy(registry.Policy{EnforceCapacity: true}))
	require.NoError(t, err)
	tiny := &testServer{reg: reg, router: NewRouter(reg, discardLogger(), RouterConfig{})}

	w = tiny.do(t, http.MethodPost, "/activities/Tiny/signup?email=b@mergington.edu")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Activity is full", decodeError(t, w))
}

func TestSignup_EncodedSlashInName(t *testing.T) {
	seed := model.Seed{Activities: []model.SeedActivity{
		{Name: "Arts/Crafts", Activity: model.Activity{MaxParticipants: 5, Participants: []string{}}},
	}}
	reg, err := registry.New(seed)
	require.NoError(t, err)
	router := NewRouter(reg, discardLogger(), RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/activities/Arts%2FCrafts/signup?email=ada@mergington.edu", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Signed up ada@mergington.edu for Arts/Crafts", decodeMessage(t, w))
	assert.Equal(t, []string{"ada@mergington.edu"}, reg.Activities()["Arts/Crafts"].Participants)
}

func TestUnregister(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/activities/Chess%20Club/unregister?email=michael@mergington.edu")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Unregistered michael@mergington.edu from Chess Club", decodeMessage(t, w))

	participants := s.activities(t)["Chess Club"].Participants
	assert.Len(t, participants, 1)
	assert.NotContains(t, participants, "michael@mergington.edu")
}

func TestUnregister_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantMsg string
	}{
		{
			name:    "unknown activity",
			target:  "/activities/NonExistent%20Activity/unregister?email=student@mergington.edu",
			wantMsg: "Activity not found",
		},
		{
			name:    "unknown participant",
			target:  "/activities/Chess%20Club/unregister?email=nonexistent@mergington.edu",
			wantMsg: "Student is not signed up for this activity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, tt.target)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, w))
		})
	}
}

func TestUnregister_MissingEmail(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/activities/Chess%20Club/unregister")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/activities/Gym%20Class/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	s.do(t, http.MethodPost, "/activities/Gym%20Class/signup?email=new@mergington.edu")
	s.do(t, http.MethodPost, "/activities/Gym%20Class/unregister?email=john@mergington.edu")

	w = s.do(t, http.MethodGet, "/activities/Gym%20Class/history")
	require.Equal(t, http.StatusOK, w.Code)

	var changes []model.RosterChange
	require.NoError(t, json.NewDecoder(w.Body).Decode(&changes))
	require.Len(t, changes, 2)
	assert.Equal(t, "new@mergington.edu", changes[0].Email)
	assert.Equal(t, model.ActionSignup, changes[0].Action)
	assert.Equal(t, "john@mergington.edu", changes[1].Email)
	assert.Equal(t, model.ActionUnregister, changes[1].Action)

	w = s.do(t, http.MethodGet, "/activities/Nope/history")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRootRedirect(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/static/index.html")
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("body{}"), 0o644))

	seed, err := registry.DefaultSeed()
	require.NoError(t, err)
	reg, err := registry.New(seed)
	require.NoError(t, err)
	router := NewRouter(reg, discardLogger(), RouterConfig{StaticDir: dir})

	req := httptest.NewRequest(http.MethodGet, "/static/styles.css", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/static/missing.js", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsMounted(t *testing.T) {
	seed, err := registry.DefaultSeed()
	require.NoError(t, err)
	reg, err := registry.New(seed)
	require.NoError(t, err)

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "roster_metrics")
	})
	router := NewRouter(reg, discardLogger(), RouterConfig{Metrics: metricsHandler})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "roster_metrics"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodOptions, "/activities/Chess%20Club/signup")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
