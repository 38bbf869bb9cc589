package game

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrWrongPhase        = errors.New("wrong phase")
	ErrAlreadyActed      = errors.New("already acted")
	ErrCardNotInHand     = errors.New("card not in hand")
	ErrInsufficientCards = errors.New("insufficient cards")
	ErrRoomFull          = errors.New("room full")
	ErrAlreadyStarted    = errors.New("already started")
	ErrNotFound          = errors.New("not found")
	ErrTransientConflict = errors.New("transient conflict")
	ErrPrecondition      = errors.New("precondition failed")
	ErrInvalidInput      = errors.New("invalid input")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrForbidden, "forbidden"},
	{ErrWrongPhase, "wrong_phase"},
	{ErrAlreadyActed, "already_acted"},
	{ErrCardNotInHand, "card_not_in_hand"},
	{ErrInsufficientCards, "insufficient_cards"},
	{ErrRoomFull, "room_full"},
	{ErrAlreadyStarted, "already_started"},
	{ErrNotFound, "not_found"},
	{ErrTransientConflict, "transient_conflict"},
	{ErrPrecondition, "precondition_failed"},
	{ErrInvalidInput, "invalid_input"},
}

// Kind returns the taxonomy label for err, or "internal" for anything unexpected.
func Kind(err error) string {
	for _, entry := range errorKinds {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return "internal"
}

// Retryable reports whether the caller may resubmit the same request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientConflict)
}
