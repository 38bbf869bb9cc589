package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func points(awards map[uint]Award) map[uint]int {
	out := make(map[uint]int, len(awards))
	for id, award := range awards {
		out[id] = award.Points
	}
	return out
}

func TestScorePartialFind(t *testing.T) {
	// Storyteller 1 plays C1; 2, 3, 4 play C2, C3, C4. Player 3 finds C1, 2 and 4 vote C2.
	awards := Score(ScoreInput{
		StorytellerID:     1,
		StorytellerCardID: "C1",
		Participants:      []uint{1, 2, 3, 4},
		Submissions: []ScoredSubmission{
			{ParticipantID: 1, CardID: "C1"},
			{ParticipantID: 2, CardID: "C2"},
			{ParticipantID: 3, CardID: "C3"},
			{ParticipantID: 4, CardID: "C4"},
		},
		Votes: []ScoredVote{
			{VoterID: 3, CardID: "C1"},
			{VoterID: 4, CardID: "C2"},
			{VoterID: 2, CardID: "C3"},
		},
	})
	assert.Equal(t, map[uint]int{1: 3, 2: 1, 3: 4, 4: 0}, points(awards))
}

func TestScoreScenarioTwoVotesOnDecoy(t *testing.T) {
	awards := Score(ScoreInput{
		StorytellerID:     1,
		StorytellerCardID: "C1",
		Participants:      []uint{1, 2, 3, 4},
		Submissions: []ScoredSubmission{
			{ParticipantID: 1, CardID: "C1"},
			{ParticipantID: 2, CardID: "C2"},
			{ParticipantID: 3, CardID: "C3"},
			{ParticipantID: 4, CardID: "C4"},
		},
		Votes: []ScoredVote{
			{VoterID: 2, CardID: "C1"},
			{VoterID: 3, CardID: "C2"},
			{VoterID: 4, CardID: "C2"},
		},
	})
	assert.Equal(t, map[uint]int{1: 3, 2: 3 + 2, 3: 0, 4: 0}, points(awards))
}

func TestScoreEveryoneFound(t *testing.T) {
	awards := Score(ScoreInput{
		StorytellerID:     1,
		StorytellerCardID: "C1",
		Participants:      []uint{1, 2, 3, 4},
		Submissions: []ScoredSubmission{
			{ParticipantID: 1, CardID: "C1"},
			{ParticipantID: 2, CardID: "C2"},
			{ParticipantID: 3, CardID: "C3"},
			{ParticipantID: 4, CardID: "C4"},
		},
		Votes: []ScoredVote{
			{VoterID: 2, CardID: "C1"},
			{VoterID: 3, CardID: "C1"},
			{VoterID: 4, CardID: "C1"},
		},
	})
	assert.Equal(t, map[uint]int{1: 0, 2: 2, 3: 2, 4: 2}, points(awards))
	assert.Len(t, awards[1].Breakdown, 1)
}

func TestScoreNobodyFoundStillPaysBonus(t *testing.T) {
	awards := Score(ScoreInput{
		StorytellerID:     1,
		StorytellerCardID: "C1",
		Participants:      []uint{1, 2, 3},
		Submissions: []ScoredSubmission{
			{ParticipantID: 1, CardID: "C1"},
			{ParticipantID: 2, CardID: "C2"},
			{ParticipantID: 3, CardID: "C3"},
		},
		Votes: []ScoredVote{
			{VoterID: 2, CardID: "C3"},
			{VoterID: 3, CardID: "C2"},
		},
	})
	assert.Equal(t, map[uint]int{1: 0, 2: 3, 3: 3}, points(awards))
	assert.Equal(t, []string{
		"+2 everyone or nobody found the storyteller",
		"+1 bonus for 1 vote(s) on your card",
	}, awards[2].Breakdown)
}

func TestScorePartialTallyCountsAgainstFullVoterPool(t *testing.T) {
	// One of three eligible voters voted, for the storyteller: k=1, n=3.
	awards := Score(ScoreInput{
		StorytellerID:     1,
		StorytellerCardID: "C1",
		Participants:      []uint{1, 2, 3, 4},
		Submissions:       []ScoredSubmission{{ParticipantID: 1, CardID: "C1"}},
		Votes:             []ScoredVote{{VoterID: 2, CardID: "C1"}},
	})
	assert.Equal(t, map[uint]int{1: 3, 2: 3, 3: 0, 4: 0}, points(awards))
}
