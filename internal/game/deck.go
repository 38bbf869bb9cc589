package game

import "fmt"

// DefaultDeckReserve is the number of cards kept back at deal time for later replenishment.
const DefaultDeckReserve = 20

// ShuffleFunc permutes ids in place.
type ShuffleFunc func(ids []string)

// Deal shuffles a copy of cardIDs and splits it into one hand per player plus the remaining deck.
func Deal(cardIDs []string, players, handSize, reserve int, shuffle ShuffleFunc) ([][]string, []string, error) {
	if players <= 0 || handSize <= 0 {
		return nil, nil, fmt.Errorf("%w: players and hand size must be positive", ErrInvalidInput)
	}
	need := players*handSize + reserve
	if len(cardIDs) < need {
		return nil, nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, need, len(cardIDs))
	}
	pool := make([]string, len(cardIDs))
	copy(pool, cardIDs)
	if shuffle != nil {
		shuffle(pool)
	}
	hands := make([][]string, players)
	for i := range hands {
		hand := make([]string, handSize)
		copy(hand, pool[i*handSize:(i+1)*handSize])
		hands[i] = hand
	}
	deck := make([]string, len(pool)-players*handSize)
	copy(deck, pool[players*handSize:])
	return hands, deck, nil
}

// TakeFromHand returns hand without cardID.
func TakeFromHand(hand []string, cardID string) ([]string, error) {
	for i, id := range hand {
		if id != cardID {
			continue
		}
		next := make([]string, 0, len(hand)-1)
		next = append(next, hand[:i]...)
		next = append(next, hand[i+1:]...)
		return next, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCardNotInHand, cardID)
}

// Replenish draws from the front of deck until hand holds handSize cards or the deck runs out.
func Replenish(hand, deck []string, handSize int) ([]string, []string) {
	missing := handSize - len(hand)
	if missing <= 0 || len(deck) == 0 {
		return hand, deck
	}
	if missing > len(deck) {
		missing = len(deck)
	}
	next := make([]string, 0, len(hand)+missing)
	next = append(next, hand...)
	next = append(next, deck[:missing]...)
	rest := make([]string, len(deck)-missing)
	copy(rest, deck[missing:])
	return next, rest
}
