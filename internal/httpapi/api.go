package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/content"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/obs"
)

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options bundles the knobs Handler applies around the mux.
type Options struct {
	RateLimitBurst  int
	RateLimitPerSec int
	MaxBodyBytes    int64
}

func (o *Options) withDefaults() Options {
	opts := Options{RateLimitBurst: 10, RateLimitPerSec: 5, MaxBodyBytes: 1 << 20}
	if o == nil {
		return opts
	}
	if o.RateLimitBurst > 0 {
		opts.RateLimitBurst = o.RateLimitBurst
	}
	if o.RateLimitPerSec > 0 {
		opts.RateLimitPerSec = o.RateLimitPerSec
	}
	if o.MaxBodyBytes > 0 {
		opts.MaxBodyBytes = o.MaxBodyBytes
	}
	return opts
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	content    content.Store
	readyProbe ReadyProbe
	version    string
	opts       Options
}

func New(authSvc *auth.Service, contentStore content.Store, rp ReadyProbe, version string, opts *Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		content:    contentStore,
		readyProbe: rp,
		version:    version,
		opts:       opts.withDefaults(),
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	// Credential endpoints are the brute-force surface; they carry a
	// per-IP rate limit the rest of the API does not.
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimit(h, a.opts.RateLimitBurst, a.opts.RateLimitPerSec)
	}
	a.mux.Handle("/v1/auth/register", limited(a.handleRegister))
	a.mux.Handle("/v1/auth/login", limited(a.handleLogin))
	a.mux.Handle("/v1/auth/refresh", limited(a.handleRefresh))

	a.mux.HandleFunc("/v1/users/profile", a.handleProfile)
	a.mux.HandleFunc("/v1/users/", a.handleUserScoped)
	a.mux.HandleFunc("/v1/roles", a.handleRoles)
	a.mux.HandleFunc("/v1/roles/", a.handleRoleScoped)
	a.mux.HandleFunc("/v1/permissions", a.handlePermissions)
	a.mux.HandleFunc("/v1/questions", a.handleQuestions)
	a.mux.HandleFunc("/v1/questions/", a.handleQuestionScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "boxuemingti-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "boxuemingti-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
