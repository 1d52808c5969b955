// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's board (creates or reuses the player's session)
//   - POST /daily/choose      → select a card on today's board
//   - GET  /daily/leaderboard → top 20 results for today (or a given date)
//
// Every player gets the same theme, pair count and card order on a given
// day (seeded from date + salt). Each player can finish once per day; the
// result is persisted when the last pair is matched.

package httpserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorize/internal/daily"
	"github.com/robalobadob/memorize/internal/game"
	"github.com/robalobadob/memorize/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // keyed by ownerID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession links a player's day to its game session.
type dailySession struct {
	SessionID string
	Recorded  bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	s.daily = &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.Post("/choose", s.daily.handleChoose)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

// newBoard builds today's deterministic game.
func (d *dailyServer) newBoard(now time.Time) (*game.Game[string], error) {
	cat := d.srv.catalog
	entry := cat.At(daily.ThemeIndex(now, d.salt, cat.Len()))
	rng := daily.Rand(now, d.salt)
	th, err := game.NewThemeRand(entry.Name, entry.Color, entry.Contents, 0, rng)
	if err != nil {
		return nil, err
	}
	return game.New(th, entry.Factory(),
		game.WithRand(rng),
		game.WithBonusTimeLimit(d.srv.cfg.BonusTimeLimit),
	), nil
}

// dailyNewRes is returned by /daily/new. State is omitted once played.
type dailyNewRes struct {
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	State  *stateView `json:"state,omitempty"`
}

// handleNew creates or reuses the caller's session for today.
//   - If a result for today is already stored → Played=true.
//   - Otherwise returns the live board.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, _ := d.srv.ownerID(w, r)
	now := time.Now().UTC()
	date := daily.DateKey(now)

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err != nil {
		log.Warn().Err(err).Msg("daily already played")
	} else if played {
		writeJSON(w, dailyNewRes{Date: date, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(date)

	if ds, ok := d.sessions[key]; ok {
		if sess, err := d.srv.store.Get(r.Context(), ds.SessionID); err == nil {
			v := snapshot(sess)
			writeJSON(w, dailyNewRes{Date: date, State: &v})
			return
		}
	}

	g, err := d.newBoard(now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "theme_failed")
		return
	}
	sess := store.NewSession(g, uid)
	sess.Daily = date
	if err := d.srv.store.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.sessions[key] = &dailySession{SessionID: sess.ID}

	v := snapshot(sess)
	writeJSON(w, dailyNewRes{Date: date, State: &v})
}

// reassign moves a guest's daily entries to their account. An entry the
// account already has for the same day wins.
func (d *dailyServer) reassign(from, to string) {
	if from == "" || from == to {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, ds := range d.sessions {
		date, ok := strings.CutPrefix(key, from+"|")
		if !ok {
			continue
		}
		delete(d.sessions, key)
		if _, taken := d.sessions[to+"|"+date]; !taken {
			d.sessions[to+"|"+date] = ds
		}
	}
}

// pruneLocked forgets sessions from earlier days.
func (d *dailyServer) pruneLocked(today string) {
	for key := range d.sessions {
		if !strings.HasSuffix(key, "|"+today) {
			delete(d.sessions, key)
		}
	}
}

// handleChoose applies a selection to the caller's daily board and persists
// the result when the board is cleared.
func (d *dailyServer) handleChoose(w http.ResponseWriter, r *http.Request) {
	uid, _ := d.srv.ownerID(w, r)
	req, ok := decodeChoose(w, r)
	if !ok {
		return
	}

	sess, err := d.srv.store.Get(r.Context(), req.GameID)
	if err != nil || sess.Daily == "" || sess.Owner() != uid {
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	key := uid + "|" + sess.Daily

	v, finished := choose(sess, *req.CardID)
	if !finished {
		writeJSON(w, v)
		return
	}

	d.mu.Lock()
	ds, ok := d.sessions[key]
	record := ok && !ds.Recorded
	if record {
		ds.Recorded = true
	}
	d.mu.Unlock()

	if record {
		res := daily.Result{
			UserID:    uid,
			Date:      sess.Daily,
			Theme:     sess.Theme,
			Score:     v.Score,
			Flips:     v.Flips,
			ElapsedMs: int(time.Since(sess.StartedAt).Milliseconds()),
		}
		if err := d.store.InsertResult(r.Context(), res); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}
	writeJSON(w, v)
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, lbRes{Date: date, Top: rows})
}
