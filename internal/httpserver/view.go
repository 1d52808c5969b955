// internal/httpserver/view.go
//
// Client-facing projection of a game.
// Responsibilities:
//   - Hide card content until the card is face-up or matched.
//   - Evaluate bonus fields at the game clock when the view is built.
//   - Snapshot sessions without counting the read as activity.

package httpserver

import (
	"github.com/robalobadob/memorize/internal/game"
	"github.com/robalobadob/memorize/internal/store"
)

// cardView is the client-facing card. Content is only sent once the card has
// been revealed.
type cardView struct {
	ID                   int     `json:"id"`
	FaceUp               bool    `json:"faceUp"`
	Matched              bool    `json:"matched"`
	Content              string  `json:"content,omitempty"`
	BonusRemaining       float64 `json:"bonusRemaining"`
	BonusTimeRemainingMs int64   `json:"bonusTimeRemainingMs"`
	EarnedBonus          bool    `json:"earnedBonus"`
	ConsumingBonus       bool    `json:"consumingBonus"`
}

type themeView struct {
	Name          string `json:"name"`
	Color         string `json:"color"`
	NumberOfPairs int    `json:"numberOfPairs"`
}

type stateView struct {
	GameID string     `json:"gameId"`
	Daily  string     `json:"daily,omitempty"`
	Theme  themeView  `json:"theme"`
	Cards  []cardView `json:"cards"`
	Score  int        `json:"score"`
	Flips  int        `json:"flips"`
	Over   bool       `json:"over"`
}

// project snapshots g; derived bonus fields are evaluated at the game clock.
func project(id, daily string, g *game.Game[string]) stateView {
	now := g.Now()
	th := g.Theme()
	v := stateView{
		GameID: id,
		Daily:  daily,
		Theme:  themeView{Name: th.Name(), Color: th.Color(), NumberOfPairs: th.NumberOfPairs()},
		Score:  g.Score(),
		Flips:  g.Flips(),
		Over:   g.IsOver(),
	}
	for _, c := range g.Cards() {
		cv := cardView{
			ID:                   c.ID,
			FaceUp:               c.IsFaceUp(),
			Matched:              c.IsMatched(),
			BonusRemaining:       c.BonusRemaining(now),
			BonusTimeRemainingMs: c.BonusTimeRemaining(now).Milliseconds(),
			EarnedBonus:          c.HasEarnedBonus(now),
			ConsumingBonus:       c.IsConsumingBonusTime(now),
		}
		if cv.FaceUp || cv.Matched {
			cv.Content = c.Content
		}
		v.Cards = append(v.Cards, cv)
	}
	return v
}

// snapshot projects a session under its lock.
func snapshot(s *store.Session) stateView {
	var v stateView
	s.View(func(g *game.Game[string]) { v = project(s.ID, s.Daily, g) })
	return v
}

// liveGame reports whether any card's countdown is still running.
func (v stateView) liveGame() bool {
	for _, c := range v.Cards {
		if c.ConsumingBonus {
			return true
		}
	}
	return false
}
