package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tickcom/portal/internal/config"
	"tickcom/portal/internal/model"
)

// Portal is what the HTTP layer needs from the portal service.
type Portal interface {
	Login(username, password string) model.AuthResult
	Authorize(sess model.Session) (model.AuthResult, model.UserRecord)
	Tools(u model.UserRecord) []model.ResolvedTool
	IsAdmin(username string) bool
	Roster() model.RosterSnapshot
	SaveRoster(ctx context.Context, actor string, rows []model.EditedRow, revision string) (model.RosterSnapshot, error)
}

type Server struct {
	cfg      config.Config
	portal   Portal
	mux      *http.ServeMux
	sessions *sessions.CookieStore
	tokens   tokenIssuer
	protect  func(http.Handler) http.Handler
	gatherer prometheus.Gatherer
}

// NewServer wires routes for the portal. gatherer may be nil, in which case
// the default prometheus registry is exposed.
func NewServer(cfg config.Config, p Portal, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	secret := cfg.Session.Secret
	if secret == "" {
		logrus.Warn("no session secret configured (PORTAL_COOKIE_KEY); sessions will not survive a restart")
		secret = string(randomKey())
	}

	store := sessions.NewCookieStore(deriveKey(secret, "session"))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge().Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		cfg:      cfg,
		portal:   p,
		mux:      http.NewServeMux(),
		sessions: store,
		tokens:   tokenIssuer{key: deriveKey(secret, "jwt"), expiry: cfg.Auth.JWTExpiry},
		gatherer: gatherer,
	}
	s.protect = csrfMiddleware(cfg, deriveKey(secret, "csrf"))
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = recoverMiddleware(h)
	h = authMiddleware(s.tokens, h)
	h = loggingMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("/v1/auth/login", s.handleAPILogin)
	s.mux.HandleFunc("/v1/tools", s.handleAPITools)
	s.mux.HandleFunc("/v1/admin/roster", s.handleAPIRoster)

	s.registerUI()
}

func csrfMiddleware(cfg config.Config, key []byte) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(cfg.Session.Secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logrus.WithError(csrf.FailureReason(r)).WithField("path", r.URL.Path).Warn("csrf check failed")
			http.Error(w, "Your form expired. Reload the page and try again.", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if cfg.Session.Secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func deriveKey(secret, purpose string) []byte {
	sum := sha256.Sum256([]byte(purpose + ":" + secret))
	return sum[:]
}

func randomKey() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate session key: " + err.Error())
	}
	return b
}
