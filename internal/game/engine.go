// internal/game/engine.go
//
// Core game engine for a single memory-matching game.
// Responsibilities:
//   - Build a shuffled deck of 2*N cards from a theme and a content factory.
//   - Resolve turns: first flip of a turn, then match or mismatch on the second.
//   - Keep score: +2 per match, -1 per mismatched card whose content was seen before.
//
// Notes:
//   - The pending card (the single face-up, unmatched card) is recomputed on
//     every Choose and never stored.
//   - A Game is not safe for concurrent use; callers serialize access.
package game

import (
	"math/rand/v2"
	"time"
)

// Game holds the state of one memory game.
type Game[T comparable] struct {
	cards []Card[T]
	theme Theme[T]
	seen  map[T]struct{}
	score int
	flips int
	clock Clock
}

type options struct {
	clock      Clock
	rng        *rand.Rand
	bonusLimit time.Duration
}

// Option configures New.
type Option func(*options)

// WithClock sets the time source used for bonus-time accounting.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithRand sets the shuffle source. Useful for reproducible boards.
func WithRand(r *rand.Rand) Option { return func(o *options) { o.rng = r } }

// WithBonusTimeLimit overrides DefaultBonusTimeLimit for every card.
func WithBonusTimeLimit(d time.Duration) Option { return func(o *options) { o.bonusLimit = d } }

// New constructs a game with theme.NumberOfPairs() pairs. factory is called
// once per pair index, in order, and its value is shared by both cards.
func New[T comparable](theme Theme[T], factory func(pairIndex int) T, opts ...Option) *Game[T] {
	o := options{clock: SystemClock{}, bonusLimit: DefaultBonusTimeLimit}
	for _, opt := range opts {
		opt(&o)
	}

	cards := make([]Card[T], 0, 2*theme.NumberOfPairs())
	for i := 0; i < theme.NumberOfPairs(); i++ {
		content := factory(i)
		cards = append(cards,
			Card[T]{ID: 2 * i, Content: content, BonusTimeLimit: o.bonusLimit},
			Card[T]{ID: 2*i + 1, Content: content, BonusTimeLimit: o.bonusLimit},
		)
	}
	swap := func(i, j int) { cards[i], cards[j] = cards[j], cards[i] }
	if o.rng != nil {
		o.rng.Shuffle(len(cards), swap)
	} else {
		rand.Shuffle(len(cards), swap)
	}

	return &Game[T]{
		cards: cards,
		theme: theme,
		seen:  make(map[T]struct{}),
		clock: o.clock,
	}
}

// Cards returns a copy of the cards in board order.
func (g *Game[T]) Cards() []Card[T] {
	return append([]Card[T](nil), g.cards...)
}

// Card looks up a card by id.
func (g *Game[T]) Card(id int) (Card[T], bool) {
	if i := g.indexOf(id); i >= 0 {
		return g.cards[i], true
	}
	return Card[T]{}, false
}

func (g *Game[T]) Theme() Theme[T] { return g.theme }
func (g *Game[T]) Score() int      { return g.score }

// Flips counts the Choose calls that changed the board.
func (g *Game[T]) Flips() int { return g.flips }

// Now reads the game's clock; derived card fields should be evaluated at it.
func (g *Game[T]) Now() time.Time { return g.clock.Now() }

// Seen reports whether content has been flipped and compared.
func (g *Game[T]) Seen(content T) bool {
	_, ok := g.seen[content]
	return ok
}

// SeenCount is the number of distinct contents seen so far.
func (g *Game[T]) SeenCount() int { return len(g.seen) }

// IsOver reports whether every card has been matched.
func (g *Game[T]) IsOver() bool {
	for _, c := range g.cards {
		if !c.matched {
			return false
		}
	}
	return true
}

// Choose selects card (matched by ID). Unknown, face-up, or matched cards are
// ignored.
func (g *Game[T]) Choose(card Card[T]) { g.ChooseID(card.ID) }

// ChooseID is Choose by card id.
func (g *Game[T]) ChooseID(id int) {
	chosen := g.indexOf(id)
	if chosen < 0 || g.cards[chosen].faceUp || g.cards[chosen].matched {
		return
	}
	now := g.clock.Now()
	g.flips++

	pending, ok := g.onlyFaceUpIndex()
	if !ok {
		for i := range g.cards {
			g.cards[i].SetFaceUp(i == chosen, now)
		}
		return
	}

	a, b := &g.cards[chosen], &g.cards[pending]
	if a.Content == b.Content {
		a.SetMatched(true, now)
		b.SetMatched(true, now)
		g.score += 2
	} else {
		if g.Seen(a.Content) {
			g.score--
		}
		if g.Seen(b.Content) {
			g.score--
		}
	}
	a.SetFaceUp(true, now)
	g.seen[a.Content] = struct{}{}
	g.seen[b.Content] = struct{}{}
}

// onlyFaceUpIndex returns the index of the single face-up, unmatched card.
// Zero or several candidates yield ok == false.
func (g *Game[T]) onlyFaceUpIndex() (int, bool) {
	found := -1
	for i, c := range g.cards {
		if c.faceUp && !c.matched {
			if found >= 0 {
				return -1, false
			}
			found = i
		}
	}
	return found, found >= 0
}

func (g *Game[T]) indexOf(id int) int {
	for i, c := range g.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
