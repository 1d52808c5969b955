package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorize/internal/auth"
)

// credentials is the payload for signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /games/mine).
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	gated := r.With(s.tokens.Require(s.db))
	gated.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, auth.FromContext(r.Context()))
	})
	gated.Get("/stats/me", s.handleStats)
	gated.Get("/games/mine", s.handleMyGames)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := auth.CreateUser(r.Context(), s.db, body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "Username taken")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.startSession(w, r, u) {
		return
	}
	writeJSON(w, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := auth.FindUserByUsername(r.Context(), s.db, strings.TrimSpace(body.Username))
	if err != nil || !auth.CheckPassword(u.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.startSession(w, r, u) {
		return
	}
	writeJSON(w, map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.tokens.ClearCookie(w)
	writeJSON(w, map[string]bool{"ok": true})
}

// startSession signs a token, sets the auth cookie and claims anonymous history.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.tokens.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.tokens.SetCookie(w, tok, exp)
	s.claimAnonGames(r, s.ensureAnonID(w, r), u.ID)
	return true
}

// claimAnonGames transfers a guest's history and live games to a user
// account after auth. Claimed rows count toward the user's stats the same
// way they would have had the user been signed in.
func (s *Server) claimAnonGames(r *http.Request, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	ctx := r.Context()
	if n, err := s.store.Reassign(ctx, anonID, userID); err != nil {
		log.Warn().Err(err).Msg("claim live games")
	} else if n > 0 {
		log.Info().Int("games", n).Str("user", userID).Msg("claimed live games")
	}
	if s.daily != nil {
		s.daily.reassign(anonID, userID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin claim tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET games_played    = games_played + (SELECT COUNT(1) FROM games WHERE anonymous_id=?),
		    games_completed = games_completed + (SELECT COUNT(1) FROM games WHERE anonymous_id=? AND status='completed'),
		    best_score      = CASE
		        WHEN (SELECT MAX(score) FROM games WHERE anonymous_id=? AND status='completed') IS NULL THEN best_score
		        WHEN best_score IS NULL OR best_score < (SELECT MAX(score) FROM games WHERE anonymous_id=? AND status='completed')
		            THEN (SELECT MAX(score) FROM games WHERE anonymous_id=? AND status='completed')
		        ELSE best_score END
		WHERE id=?`, anonID, anonID, anonID, anonID, anonID, userID); err != nil {
		log.Warn().Err(err).Msg("credit claimed games")
		return
	}
	if _, err := tx.ExecContext(ctx, `UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
		return
	}
	if _, err := tx.ExecContext(ctx, `UPDATE OR IGNORE daily_results SET user_id=? WHERE user_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon daily results")
		return
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit claim")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	u, err := auth.FindUserByID(r.Context(), s.db, me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	writeJSON(w, map[string]any{
		"id":             u.ID,
		"gamesPlayed":    u.GamesPlayed,
		"gamesCompleted": u.GamesCompleted,
		"bestScore":      u.BestScore,
	})
}

type gameRow struct {
	ID         string `json:"id"`
	Theme      string `json:"theme"`
	Pairs      int    `json:"pairs"`
	Score      int    `json:"score"`
	Flips      int    `json:"flips"`
	Status     string `json:"status"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, theme, pairs, score, flips, status, started_at, COALESCE(finished_at,'')
		 FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	out := []gameRow{}
	for rows.Next() {
		var g gameRow
		if err := rows.Scan(&g.ID, &g.Theme, &g.Pairs, &g.Score, &g.Flips, &g.Status, &g.StartedAt, &g.FinishedAt); err == nil {
			out = append(out, g)
		}
	}
	writeJSON(w, out)
}
