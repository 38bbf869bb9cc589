package game

import "story-cards/internal/db"

// phaseCycle is the forward-only order a round moves through. RESULTS has no successor; the next
// round starts fresh.
var phaseCycle = map[string]string{
	db.PhaseStorytellerTurn:  db.PhasePlayerSubmission,
	db.PhasePlayerSubmission: db.PhaseVoting,
	db.PhaseVoting:           db.PhaseResults,
}

func nextPhase(phase string) (string, bool) {
	next, ok := phaseCycle[phase]
	return next, ok
}

func cardsRevealed(phase string) bool {
	return phase == db.PhaseVoting || phase == db.PhaseResults
}
