package server

import (
	"bytes"
	"carfit/internal/audit"
	"carfit/internal/catalog"
	"carfit/internal/cluster"
	"carfit/internal/diagnose"
	"carfit/internal/history"
	"carfit/internal/metrics"
	"carfit/internal/rank"
	"carfit/internal/score"
	"carfit/internal/vehicle"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cookieName = "carfit_session"
	adminToken = "secret"
)

const sampleCatalog = `[
  {"Brand": "Toyota", "Type Model": "Avanza 1.5 G CVT", "Harga OTR (IDR)": 265000000,
   "Seats": 7, "Segmentasi": "MPV", "Fuel": "Bensin", "Trans": "CVT"},
  {"Brand": "Honda", "Type Model": "Brio RS CVT", "Harga OTR (IDR)": 236000000,
   "Seats": 5, "Segmentasi": "Hatchback", "Fuel": "Bensin", "Trans": "CVT"},
  {"Brand": "Mitsubishi", "Type Model": "Xpander Cross MT", "Harga OTR (IDR)": 280000000,
   "Seats": 7, "Segmentasi": "MPV", "Fuel": "Bensin", "Trans": "MT"}
]`

// emptyCatalog serves no records and cannot be reloaded.
type emptyCatalog struct{}

func (emptyCatalog) Vehicles() []vehicle.Vehicle { return nil }

func (emptyCatalog) Reload() (*catalog.Snapshot, error) {
	return nil, catalog.ErrEmptyCatalog
}

type fakeAudit struct {
	mu      sync.Mutex
	records []audit.Record
}

func (f *fakeAudit) Append(rec audit.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

func (f *fakeAudit) Close() error { return nil }

func (f *fakeAudit) all() []audit.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]audit.Record(nil), f.records...)
}

type fixture struct {
	server  *httptest.Server
	history *history.MemoryRepository
	audit   *fakeAudit
	metrics *metrics.Metrics
	catalog string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))
	store, err := catalog.NewStore(path)
	require.NoError(t, err)

	policy, err := score.DefaultPolicy()
	require.NoError(t, err)
	m := metrics.New(nil)
	engine := rank.NewEngine(policy, rank.Options{Cluster: cluster.DefaultConfig()}, m)

	f := &fixture{
		history: history.NewMemoryRepository(5, time.Hour),
		audit:   &fakeAudit{},
		metrics: m,
		catalog: path,
	}
	router := NewApiV1Router(cookieName, adminToken, 6, Deps{
		Catalog: store,
		Ranker:  engine,
		History: f.history,
		Audit:   f.audit,
		Metrics: m,
	})
	f.server = httptest.NewServer(router.Mux())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) post(t *testing.T, path, body string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestRecommend(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/api/v1/recommendations", `{"budget": 250000000}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "a new session cookie is issued")
	assert.NotEmpty(t, cookie.Value)

	body := decode[recommendationResponse](t, resp)
	assert.NotEmpty(t, body.ID)
	assert.Nil(t, body.Hint)
	require.Len(t, body.Items, 3)
	for i, c := range body.Items {
		assert.Equal(t, i+1, c.Rank)
		assert.LessOrEqual(t, c.Vehicle.Price, 1.15*250e6)
	}

	entry, err := f.history.Last(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, body.ID, entry.ID)
	assert.Equal(t, 6, entry.Request.TopN)

	records := f.audit.all()
	require.Len(t, records, 1)
	assert.Equal(t, body.ID, records[0].ID)
	assert.Equal(t, cookie.Value, records[0].Session)
	assert.Len(t, records[0].Items, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("recommendations", "200")))
}

func TestRecommend_FiltersAndSession(t *testing.T) {
	f := newFixture(t)
	cookie := &http.Cookie{Name: cookieName, Value: "session-1"}

	resp := f.post(t, "/api/v1/recommendations",
		`{"budget": 250000000, "needs": ["keluarga"], "filters": {"transmission": "manual"}, "topn": 2}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp), "an existing session is kept")

	body := decode[recommendationResponse](t, resp)
	assert.Equal(t, []string{"family"}, body.Needs.Strings())
	for _, c := range body.Items {
		assert.Equal(t, "Mitsubishi", c.Vehicle.Brand)
	}

	last := f.get(t, "/api/v1/recommendations/last", cookie)
	require.Equal(t, http.StatusOK, last.StatusCode)
	entry := decode[history.Entry](t, last)
	assert.Equal(t, body.ID, entry.ID)
	assert.Equal(t, 2, entry.Request.TopN)
}

func TestRecommend_EmptyWithHint(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/api/v1/recommendations", `{"budget": 100000000}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[recommendationResponse](t, resp)
	assert.Empty(t, body.Items)
	assert.Equal(t, rank.StagePrice, body.EmptyAt)
	require.NotNil(t, body.Hint)
	assert.Equal(t, diagnose.BudgetTooLow, body.Hint.Reason)
	require.NotNil(t, body.Hint.SuggestedBudget)
	assert.Equal(t, 210e6, *body.Hint.SuggestedBudget)

	records := f.audit.all()
	require.Len(t, records, 1)
	assert.Equal(t, diagnose.BudgetTooLow, records[0].Reason)
}

func TestRecommend_Invalid(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"budget": `},
		{"missing budget", `{"needs": ["city"]}`},
		{"negative budget", `{"budget": -5}`},
		{"unknown need", `{"budget": 250000000, "needs": ["teleport"]}`},
		{"empty need", `{"budget": 250000000, "needs": [""]}`},
		{"unknown transmission", `{"budget": 250000000, "filters": {"transmission": "sequential"}}`},
		{"unknown fuel", `{"budget": 250000000, "filters": {"fuels": ["diesel", "steam"]}}`},
		{"topn too large", `{"budget": 250000000, "topn": 500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.post(t, "/api/v1/recommendations", tt.body, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			body := decode[errorResponse](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}
	assert.Empty(t, f.audit.all())
}

func TestLast_NotFound(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/recommendations/last", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound,
		f.get(t, "/api/v1/recommendations/last", &http.Cookie{Name: cookieName, Value: "unknown"}).StatusCode)
}

func TestHistoryList(t *testing.T) {
	f := newFixture(t)
	cookie := &http.Cookie{Name: cookieName, Value: "session-list"}

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/recommendations", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/recommendations", cookie).StatusCode)

	var ids []string
	for _, body := range []string{`{"budget": 250000000}`, `{"budget": 300000000, "topn": 1}`} {
		resp := f.post(t, "/api/v1/recommendations", body, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		ids = append(ids, decode[recommendationResponse](t, resp).ID)
	}

	resp := f.get(t, "/api/v1/recommendations", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[historyResponse](t, resp)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, ids[0], list.Entries[0].ID, "oldest first")
	assert.Equal(t, ids[1], list.Entries[1].ID)
	assert.Equal(t, 1, list.Entries[1].Request.TopN)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HTTPRequests.WithLabelValues("history", "200")))
}

func TestHealth_RedisHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, err := history.NewRedisRepository(context.Background(), history.RedisConfig{Addr: mr.Addr()}, 5, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	router := NewApiV1Router(cookieName, "", 6, Deps{Catalog: emptyCatalog{}, History: repo})
	srv := httptest.NewServer(router.Mux())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[map[string]any](t, resp)
	resp.Body.Close()
	assert.Equal(t, "ok", health["history"])

	mr.Close()
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", decode[map[string]any](t, resp)["status"])
}

func TestNeeds(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/api/v1/needs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Needs    []string `json:"needs"`
		MaxNeeds int      `json:"max_needs"`
	}](t, resp)
	assert.Equal(t, []string{"long_trip", "family", "fun", "city", "commercial", "offroad"}, body.Needs)
	assert.Equal(t, 3, body.MaxNeeds)
}

func TestReload(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/api/v1/catalog/reload", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	trimmed := `[{"Brand": "Honda", "Type Model": "Brio RS", "Harga OTR (IDR)": 236000000}]`
	require.NoError(t, os.WriteFile(f.catalog, []byte(trimmed), 0o600))

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/catalog/reload", nil)
	require.NoError(t, err)
	req.Header.Set(AdminTokenHeader, adminToken)
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	require.Equal(t, http.StatusOK, ok.StatusCode)
	assert.Equal(t, 1.0, decode[map[string]any](t, ok)["records"])

	health := decode[map[string]any](t, f.get(t, "/healthz", nil))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 1.0, health["catalog"])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CatalogRecords))

	require.NoError(t, os.WriteFile(f.catalog, []byte(`{broken`), 0o600))
	req, err = http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/catalog/reload", nil)
	require.NoError(t, err)
	req.Header.Set(AdminTokenHeader, adminToken)
	failed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer failed.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, failed.StatusCode)

	health = decode[map[string]any](t, f.get(t, "/healthz", nil))
	assert.Equal(t, 1.0, health["catalog"], "the previous catalog stays in use")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CatalogReloads.WithLabelValues("error")))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/v1/recommendations", `{"budget": 250000000}`, nil)

	resp := f.get(t, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("carfit_rank_duration_seconds")))
}

func TestServer_Shutdown(t *testing.T) {
	router := NewApiV1Router(cookieName, "", 6, Deps{Catalog: emptyCatalog{}})
	srv := NewServer("127.0.0.1:0", time.Second, time.Second, router)

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
