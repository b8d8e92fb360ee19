package server

import (
	"carfit/internal/audit"
	"carfit/internal/catalog"
	"carfit/internal/diagnose"
	"carfit/internal/history"
	"carfit/internal/metrics"
	"carfit/internal/need"
	"carfit/internal/rank"
	"carfit/internal/vehicle"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// AdminTokenHeader carries the token of administrative endpoints.
const AdminTokenHeader = "X-Admin-Token"

// maxBodyBytes limits the size of a request body.
const maxBodyBytes = 1 << 20

// healthTimeout bounds the history ping of the health check.
const healthTimeout = 2 * time.Second

// Catalog is the source of the ranking pool. *catalog.Store satisfies it.
type Catalog interface {
	Vehicles() []vehicle.Vehicle
	Reload() (*catalog.Snapshot, error)
}

// Ranker ranks a pool. *rank.Engine satisfies it.
type Ranker interface {
	Rank(pool []vehicle.Vehicle, req rank.Request) rank.Result
	diagnose.Limits
}

// Deps are the components the API works with.
type Deps struct {
	Catalog Catalog
	Ranker  Ranker
	History history.Repository
	Audit   audit.Log
	Metrics *metrics.Metrics
}

// ApiV1Router manages routes for API version 1.
// Handles ranking requests, session history, catalog reloads and service endpoints.
type ApiV1Router struct {
	deps Deps
	// sessionCookie — name of cookie used for session identification.
	sessionCookie string
	// adminToken — token expected in AdminTokenHeader by administrative endpoints.
	// If empty, the check is disabled.
	adminToken string
	// topN — number of candidates returned when a request does not ask for a number.
	topN int
}

// NewApiV1Router creates a new API v1 router.
// Parameters:
// - sessionCookie: cookie name for session identification
// - adminToken: token of administrative endpoints (can be empty)
// - topN: default number of returned candidates
// - deps: catalog, ranker, history, audit log and metrics
//
// A nil Audit is replaced by audit.Discard and nil Metrics by a private registry.
func NewApiV1Router(sessionCookie, adminToken string, topN int, deps Deps) *ApiV1Router {
	if deps.Audit == nil {
		deps.Audit = audit.Discard{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	return &ApiV1Router{
		deps:          deps,
		sessionCookie: sessionCookie,
		adminToken:    adminToken,
		topN:          topN,
	}
}

// Mux returns a configured *http.ServeMux with registered handlers.
// Registers the following routes:
// - POST /api/v1/recommendations — ranks the catalog for the request
// - GET /api/v1/recommendations — stored rankings of the session, oldest first
// - GET /api/v1/recommendations/last — latest ranking of the session
// - GET /api/v1/needs — canonical needs
// - POST /api/v1/catalog/reload — reloads the catalog file
// - GET /metrics — Prometheus metrics
// - GET /healthz — liveness, catalog size and history backend state
func (ar *ApiV1Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/recommendations", ar.instrument("recommendations", ar.recommendHandler))
	mux.HandleFunc("GET /api/v1/recommendations", ar.instrument("history", ar.listHandler))
	mux.HandleFunc("GET /api/v1/recommendations/last", ar.instrument("last", ar.lastHandler))
	mux.HandleFunc("GET /api/v1/needs", ar.instrument("needs", ar.needsHandler))
	mux.HandleFunc("POST /api/v1/catalog/reload", ar.instrument("reload", ar.reloadHandler))
	mux.Handle("GET /metrics", ar.deps.Metrics.Handler())
	mux.HandleFunc("GET /healthz", ar.healthHandler)
	return mux
}

// recommendHandler handles ranking requests.
// Expects JSON body with budget, needs, filters and topn. The session cookie
// is created when missing. The result is stored in the session history and
// the audit log. An empty result is returned with a diagnostic hint.
func (ar *ApiV1Router) recommendHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("Unable to read recommendation request body", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	defer r.Body.Close()

	var dto recommendationRequest
	if err := json.Unmarshal(body, &dto); err != nil {
		slog.Warn("Unable to unmarshal recommendation request body", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	req, err := dto.toRank(ar.topN)
	if err != nil {
		slog.Warn("Invalid recommendation request", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	session := ar.session(w, r)
	pool := ar.deps.Catalog.Vehicles()
	res := ar.deps.Ranker.Rank(pool, req)
	resp := recommendationResponse{ID: uuid.NewString(), Result: res}

	if res.Empty() && res.EmptyAt != rank.StageInternal {
		hint := diagnose.Explain(pool, req, ar.deps.Ranker)
		resp.Hint = &hint
	}

	if ar.deps.History != nil {
		entry := history.Entry{ID: resp.ID, At: time.Now(), Request: req, Result: res}
		if err := ar.deps.History.Append(r.Context(), session, entry); err != nil {
			slog.Warn("Unable to store ranking history", "session", session, "error", err)
		}
	}

	record := audit.NewRecord(resp.ID, session, req, res)
	if resp.Hint != nil {
		record.Reason = resp.Hint.Reason
	}
	ar.deps.Audit.Append(record)

	writeJSON(w, http.StatusOK, resp)
}

// lastHandler returns the latest ranking of the session identified by the cookie.
// If there is none — returns status 404.
func (ar *ApiV1Router) lastHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(ar.sessionCookie)
	if err != nil || cookie.Value == "" || ar.deps.History == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	entry, err := ar.deps.History.Last(r.Context(), cookie.Value)
	if errors.Is(err, history.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Unable to read ranking history", "session", cookie.Value, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// listHandler returns every stored ranking of the session, oldest first.
// If the session has none — returns status 404.
func (ar *ApiV1Router) listHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(ar.sessionCookie)
	if err != nil || cookie.Value == "" || ar.deps.History == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	entries, err := ar.deps.History.List(r.Context(), cookie.Value)
	if errors.Is(err, history.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Unable to read ranking history", "session", cookie.Value, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// needsHandler lists the canonical needs and the largest accepted set.
func (ar *ApiV1Router) needsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"needs":     need.Set(need.All).Strings(),
		"max_needs": need.MaxNeeds,
	})
}

// reloadHandler re-reads the catalog file. Requires AdminTokenHeader when
// an admin token is configured. On error the previous catalog stays in use.
func (ar *ApiV1Router) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if ar.adminToken != "" {
		token := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(token), []byte(ar.adminToken)) != 1 {
			slog.Warn("Catalog reload with invalid admin token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	snap, err := ar.deps.Catalog.Reload()
	if err != nil {
		ar.deps.Metrics.RecordCatalog(0, err)
		slog.Error("Unable to reload catalog", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ar.deps.Metrics.RecordCatalog(len(snap.Vehicles), nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"records":   len(snap.Vehicles),
		"skipped":   snap.Skipped,
		"source":    snap.Source,
		"loaded_at": snap.LoadedAt,
	})
}

// pinger is implemented by history backends reachable over the network.
type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler reports liveness and the size of the loaded catalog.
// When the history backend supports Ping and it fails, the status is 503.
func (ar *ApiV1Router) healthHandler(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	resp := map[string]any{
		"status":  "ok",
		"catalog": len(ar.deps.Catalog.Vehicles()),
	}

	if p, ok := ar.deps.History.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			slog.Warn("History backend is unavailable", "error", err)
			code = http.StatusServiceUnavailable
			resp["status"] = "degraded"
			resp["history"] = err.Error()
		} else {
			resp["history"] = "ok"
		}
	}

	writeJSON(w, code, resp)
}

// session returns the session identifier from the cookie, issuing a new one when missing.
func (ar *ApiV1Router) session(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(ar.sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ar.sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// statusWriter remembers the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument counts served requests by route and status code.
func (ar *ApiV1Router) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		ar.deps.Metrics.RecordRequest(route, sw.code)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
