// internal/httpserver/routes_game.go
//
// HTTP routes for regular games.
//   - GET  /themes      → theme catalog
//   - POST /game/new    → start a fresh game session (a new game never resets an old one)
//   - GET  /game/{id}   → current state
//   - POST /game/choose → select a card (owner only); invalid selections leave the state unchanged
//
// Games live in memory; the games table keeps a best-effort history row.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorize/internal/game"
	"github.com/robalobadob/memorize/internal/store"
	"github.com/robalobadob/memorize/internal/themes"
)

type themeInfo struct {
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Contents []string `json:"contents"`
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	out := make([]themeInfo, 0, s.catalog.Len())
	for i := 0; i < s.catalog.Len(); i++ {
		e := s.catalog.At(i)
		out = append(out, themeInfo{Name: e.Name, Color: e.Color, Contents: e.Contents})
	}
	writeJSON(w, out)
}

// newGameReq is the payload for POST /game/new. Both fields are optional.
type newGameReq struct {
	Theme string `json:"theme"`
	Pairs int    `json:"pairs"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	entry, th, err := s.catalog.Build(req.Theme, req.Pairs)
	switch {
	case errors.Is(err, themes.ErrUnknownTheme):
		writeError(w, http.StatusBadRequest, "unknown_theme")
		return
	case errors.Is(err, game.ErrNotEnoughContents):
		writeError(w, http.StatusBadRequest, "too_many_pairs")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "theme_failed")
		return
	}

	owner, authed := s.ownerID(w, r)
	g := game.New(th, entry.Factory(), game.WithBonusTimeLimit(s.cfg.BonusTimeLimit))
	sess := store.NewSession(g, owner)
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.recordStart(r, sess, th.NumberOfPairs(), authed)

	writeJSON(w, snapshot(sess))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, snapshot(sess))
}

// chooseReq is the payload for POST /game/choose and /daily/choose.
type chooseReq struct {
	GameID string `json:"gameId"`
	CardID *int   `json:"cardId"`
}

func decodeChoose(w http.ResponseWriter, r *http.Request) (chooseReq, bool) {
	var req chooseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return req, false
	}
	if req.GameID == "" || req.CardID == nil {
		writeError(w, http.StatusBadRequest, "invalid")
		return req, false
	}
	return req, true
}

// choose applies a selection and reports whether it finished the game.
func choose(sess *store.Session, cardID int) (v stateView, finished bool) {
	sess.Do(func(g *game.Game[string]) {
		wasOver := g.IsOver()
		g.ChooseID(cardID)
		finished = !wasOver && g.IsOver()
		v = project(sess.ID, sess.Daily, g)
	})
	return v, finished
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChoose(w, r)
	if !ok {
		return
	}
	sess, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if sess.Daily != "" {
		writeError(w, http.StatusConflict, "daily_game")
		return
	}
	if owner, _ := s.ownerID(w, r); sess.Owner() != owner {
		writeError(w, http.StatusForbidden, "not_owner")
		return
	}

	v, finished := choose(sess, *req.CardID)
	s.recordProgress(r, sess, v, finished)
	writeJSON(w, v)
}

// --------------------------- persistence -----------------------------------

// recordStart inserts the history row and counts the game for signed-in users.
func (s *Server) recordStart(r *http.Request, sess *store.Session, pairs int, authed bool) {
	ownerCol := "anonymous_id"
	if authed {
		ownerCol = "user_id"
	}
	now := sess.StartedAt.Format(time.RFC3339)
	if _, err := s.db.ExecContext(r.Context(),
		`INSERT INTO games (id, `+ownerCol+`, theme, pairs, started_at, status) VALUES (?,?,?,?,?,'playing')`,
		sess.ID, sess.Owner(), sess.Theme, pairs, now); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert game row")
	}
	if authed {
		if _, err := s.db.ExecContext(r.Context(),
			`UPDATE users SET games_played = games_played + 1 WHERE id=?`, sess.Owner()); err != nil {
			log.Warn().Err(err).Str("user", sess.Owner()).Msg("bump games_played")
		}
	}
}

// recordProgress stores score/flips and, on completion, the final result
// (best effort, non-fatal if it fails).
func (s *Server) recordProgress(r *http.Request, sess *store.Session, v stateView, finished bool) {
	ctx := r.Context()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin progress tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET score=?, flips=? WHERE id=?`, v.Score, v.Flips, sess.ID); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("update game progress")
	}
	if finished {
		if _, err := tx.ExecContext(ctx, `UPDATE games SET status='completed', finished_at=? WHERE id=?`,
			time.Now().UTC().Format(time.RFC3339), sess.ID); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("finish game")
		}
		if err := bumpCompleted(tx, sess.ID, v.Score); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("bump stats")
		}
		log.Info().Str("gameId", sess.ID).Str("theme", sess.Theme).Int("score", v.Score).Int("flips", v.Flips).Msg("game completed")
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit progress")
	}
}

// bumpCompleted credits the completed game to its user row, if any.
func bumpCompleted(tx *sql.Tx, gameID string, score int) error {
	_, err := tx.Exec(`
		UPDATE users
		SET games_completed = games_completed + 1,
		    best_score = CASE WHEN best_score IS NULL OR best_score < ? THEN ? ELSE best_score END
		WHERE id = (SELECT user_id FROM games WHERE id=?)`, score, score, gameID)
	return err
}
