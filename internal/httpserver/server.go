// internal/httpserver/server.go
//
// HTTP server wiring for the Memorize backend.
// Responsibilities:
//   - Router + middleware (access log, JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/themes".
//   - Game endpoints (optional auth): POST /game/new, GET /game/{id}, POST /game/choose (owner only).
//   - Live state feed: GET /game/{id}/live (websocket, no handler timeout).
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - The engine is never touched outside store.Session.Do.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorize/internal/auth"
	"github.com/robalobadob/memorize/internal/config"
	"github.com/robalobadob/memorize/internal/store"
	"github.com/robalobadob/memorize/internal/themes"
)

// Server bundles router, in-memory game store, and DB handle.
type Server struct {
	r       *chi.Mux
	store   store.Store
	db      *sql.DB
	cfg     *config.Config
	catalog *themes.Catalog
	tokens  auth.Tokens
	daily   *dailyServer

	pongWait time.Duration // live feed read deadline; pings go out at 9/10 of it
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, cfg *config.Config, catalog *themes.Catalog) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		store:   st,
		db:      db,
		cfg:     cfg,
		catalog: catalog,
		tokens: auth.Tokens{
			Secret:     []byte(cfg.JWTSecret),
			TTL:        time.Duration(cfg.JWTExpiresDays) * 24 * time.Hour,
			CookieName: cfg.CookieName,
			Secure:     cfg.Production,
		},
		pongWait: defaultPongWait,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	optional := s.tokens.Optional(db)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"memorize-go","endpoints":["/health","/themes","POST /game/new","POST /game/choose","GET /game/{id}","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/themes", s.handleThemes)

		// Game endpoints: OPTIONAL AUTH (guests can play)
		r.With(optional).Post("/game/new", s.handleNewGame)
		r.With(optional).Post("/game/choose", s.handleChoose)
		r.Get("/game/{id}", s.handleGetGame)

		// Daily Challenge: OPTIONAL AUTH
		s.mountDaily(r.With(optional))

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// Websocket connections outlive the handler timeout.
	s.r.Get("/game/{id}/live", s.handleLive)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reqId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

// writeError renders {"error": code}.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

const anonCookieName = "memorize_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// ownerID is the authenticated user id or the anonymous cookie id.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) (id string, authed bool) {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID, true
	}
	return s.ensureAnonID(w, r), false
}
