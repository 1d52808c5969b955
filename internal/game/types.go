// internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - Theme: immutable descriptor (name, contents, color, pair count).
//   - Card:  a single card with face/match state and bonus-time accounting.
//   - Clock: time source used to stamp face-up intervals.

package game

import (
	"errors"
	"math/rand/v2"
	"time"
)

const (
	// MinPairs and MaxPairs bound the random pair count of a theme.
	MinPairs = 2
	MaxPairs = 5

	// DefaultBonusTimeLimit is how long a face-up, unmatched card earns bonus.
	DefaultBonusTimeLimit = 6 * time.Second
)

// ErrNotEnoughContents is returned when a theme cannot supply one content
// value per pair.
var ErrNotEnoughContents = errors.New("theme has fewer contents than pairs")

// Theme describes the contents and presentation of a single game.
type Theme[T comparable] struct {
	name     string
	color    string
	contents []T
	pairs    int
}

// NewTheme builds a Theme. A numberOfPairs <= 0 picks a count uniformly in
// [MinPairs, MaxPairs], capped at len(contents).
func NewTheme[T comparable](name, color string, contents []T, numberOfPairs int) (Theme[T], error) {
	return NewThemeRand(name, color, contents, numberOfPairs, nil)
}

// NewThemeRand is NewTheme with an explicit random source for the pair count.
// A nil r uses the package-level generator.
func NewThemeRand[T comparable](name, color string, contents []T, numberOfPairs int, r *rand.Rand) (Theme[T], error) {
	pairs := numberOfPairs
	if pairs <= 0 {
		hi := min(MaxPairs, len(contents))
		if hi < MinPairs {
			return Theme[T]{}, ErrNotEnoughContents
		}
		span := hi - MinPairs + 1
		if r != nil {
			pairs = MinPairs + r.IntN(span)
		} else {
			pairs = MinPairs + rand.IntN(span)
		}
	}
	if pairs > len(contents) {
		return Theme[T]{}, ErrNotEnoughContents
	}
	return Theme[T]{
		name:     name,
		color:    color,
		contents: append([]T(nil), contents...),
		pairs:    pairs,
	}, nil
}

func (t Theme[T]) Name() string       { return t.name }
func (t Theme[T]) Color() string      { return t.color }
func (t Theme[T]) NumberOfPairs() int { return t.pairs }

// Contents returns a copy of the theme's content list.
func (t Theme[T]) Contents() []T { return append([]T(nil), t.contents...) }

// Card is one card on the board. Face and match state change only through
// SetFaceUp and SetMatched so the bonus-time accounting stays consistent.
type Card[T comparable] struct {
	ID             int
	Content        T
	BonusTimeLimit time.Duration

	faceUp     bool
	matched    bool
	timing     bool          // an open face-up interval started at lastFaceUp
	lastFaceUp time.Time
	pastFaceUp time.Duration // closed intervals only
}

func (c Card[T]) IsFaceUp() bool  { return c.faceUp }
func (c Card[T]) IsMatched() bool { return c.matched }

// SetFaceUp flips the card and opens or closes its face-up interval.
func (c *Card[T]) SetFaceUp(up bool, now time.Time) {
	c.faceUp = up
	if up {
		c.startBonusTime(now)
	} else {
		c.stopBonusTime(now)
	}
}

// SetMatched records the match state; the face-up interval is always closed.
func (c *Card[T]) SetMatched(matched bool, now time.Time) {
	c.matched = matched
	c.stopBonusTime(now)
}

// FaceUpTime is the total time the card has spent face-up while timed.
func (c Card[T]) FaceUpTime(now time.Time) time.Duration {
	if c.timing {
		return c.pastFaceUp + now.Sub(c.lastFaceUp)
	}
	return c.pastFaceUp
}

// BonusTimeRemaining never goes below zero.
func (c Card[T]) BonusTimeRemaining(now time.Time) time.Duration {
	return max(0, c.BonusTimeLimit-c.FaceUpTime(now))
}

// BonusRemaining is the remaining bonus time as a fraction of the limit.
func (c Card[T]) BonusRemaining(now time.Time) float64 {
	remaining := c.BonusTimeRemaining(now)
	if c.BonusTimeLimit > 0 && remaining > 0 {
		return float64(remaining) / float64(c.BonusTimeLimit)
	}
	return 0
}

// HasEarnedBonus reports whether the card was matched inside its bonus window.
func (c Card[T]) HasEarnedBonus(now time.Time) bool {
	return c.matched && c.BonusTimeRemaining(now) > 0
}

// IsConsumingBonusTime reports whether the bonus countdown is running.
func (c Card[T]) IsConsumingBonusTime(now time.Time) bool {
	return c.faceUp && !c.matched && c.BonusTimeRemaining(now) > 0
}

func (c *Card[T]) startBonusTime(now time.Time) {
	if c.IsConsumingBonusTime(now) && !c.timing {
		c.lastFaceUp = now
		c.timing = true
	}
}

func (c *Card[T]) stopBonusTime(now time.Time) {
	c.pastFaceUp = c.FaceUpTime(now)
	c.timing = false
	c.lastFaceUp = time.Time{}
}

// Clock supplies the current time to the engine.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
