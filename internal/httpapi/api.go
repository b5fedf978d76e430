package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
	"github.com/samad-59/access-guard-role-Project/internal/obs"
)

// ReadyProbe reports whether the durable store is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth service.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	readyProbe ReadyProbe
	version    string

	maxBodyBytes int64
	rateBurst    int
	ratePerSec   int
}

// New wires every route onto a fresh mux.
func New(svc *auth.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:          http.NewServeMux(),
		svc:          svc,
		readyProbe:   rp,
		version:      version,
		maxBodyBytes: 1 << 20,
		rateBurst:    20,
		ratePerSec:   10,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)

	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)
	a.mux.HandleFunc("/api/roles", a.handleRoles)
	a.mux.HandleFunc("/api/roles/", a.handleRoleResource)
	a.mux.HandleFunc("/api/permissions", a.handlePermissions)
	a.mux.HandleFunc("/api/logs", a.handleLogs)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = Logging(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}
