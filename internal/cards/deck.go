package cards

import (
	"crypto/rand"
	"errors"
)

// ErrInsufficientCards is returned when a deal or burn would run past the
// end of the deck.
var ErrInsufficientCards = errors.New("cards: insufficient cards remaining")

// Deck is an ordered sequence of 52 cards with a dealing cursor. Deck is
// not safe for concurrent use; callers serialize access the way the
// orchestrator serializes all mutation for a table.
type Deck struct {
	cards  [52]Card
	cursor int
}

// New creates a deck in canonical (unshuffled) order.
func New() *Deck {
	return &Deck{cards: Canonical52()}
}

// NewOrdered creates a deck dealing in exactly the given order. Useful for
// replaying a recorded deal or driving a deterministic test.
func NewOrdered(order [52]Card) *Deck {
	return &Deck{cards: order}
}

// Shuffle performs an in-place cryptographic Fisher-Yates shuffle and
// resets the dealing cursor to 0. For each position i from n-1 down to 1,
// j is drawn uniformly from [0,i] via rejection sampling against the
// crypto/rand byte stream, so there is no modulo bias.
func (d *Deck) Shuffle() error {
	for i := len(d.cards) - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return err
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	d.cursor = 0
	return nil
}

// ShuffleCopy returns a new, independently shuffled 52-card sequence
// without mutating d. Useful for tests that want a permutation without
// disturbing the deck under test.
func ShuffleCopy(d *Deck) (*Deck, error) {
	cp := &Deck{cards: d.cards}
	if err := cp.Shuffle(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Reset restores the deck to canonical order and zeroes the cursor. It
// does not shuffle; callers shuffle explicitly before dealing.
func (d *Deck) Reset() {
	d.cards = Canonical52()
	d.cursor = 0
}

// Remaining returns how many cards are left to deal.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.cursor
}

// Deal returns the next card, advancing the cursor by one.
func (d *Deck) Deal() (Card, error) {
	if d.Remaining() < 1 {
		return Card{}, ErrInsufficientCards
	}
	c := d.cards[d.cursor]
	d.cursor++
	return c, nil
}

// DealN returns the next n cards, advancing the cursor by n. It fails
// atomically: if there aren't n cards left, the cursor is not advanced.
func (d *Deck) DealN(n int) ([]Card, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrInsufficientCards
	}
	out := make([]Card, n)
	copy(out, d.cards[d.cursor:d.cursor+n])
	d.cursor += n
	return out, nil
}

// Burn discards the next card without returning it.
func (d *Deck) Burn() error {
	if d.Remaining() < 1 {
		return ErrInsufficientCards
	}
	d.cursor++
	return nil
}

// randIntn draws a uniform value in [0,n) from crypto/rand via rejection
// sampling against raw bytes, avoiding modulo bias. n must be > 0 and fits
// comfortably in a single byte's range for a 52-card deck (n <= 52).
func randIntn(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("cards: randIntn requires n > 0")
	}
	if n > 256 {
		// Not needed for a 52-card deck, but guard against misuse.
		return 0, errors.New("cards: randIntn supports n <= 256")
	}
	// Largest multiple of n that fits in a byte's range [0,256); values at
	// or above this threshold are rejected and redrawn to remove bias.
	limit := 256 - (256 % n)
	var buf [1]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		if int(buf[0]) < limit {
			return int(buf[0]) % n, nil
		}
	}
}
