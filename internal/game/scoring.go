package game

import "fmt"

const (
	storytellerFoundPoints = 3
	guesserFoundPoints     = 3
	allOrNonePoints        = 2
)

type ScoredSubmission struct {
	ParticipantID uint
	CardID        string
}

type ScoredVote struct {
	VoterID uint
	CardID  string
}

// ScoreInput is the complete, closed tally of one round.
type ScoreInput struct {
	StorytellerID     uint
	StorytellerCardID string
	Participants      []uint
	Submissions       []ScoredSubmission
	Votes             []ScoredVote
}

type Award struct {
	Points    int
	Breakdown []string
}

// Score computes each participant's point delta for a round. Every participant in the input
// has an entry, including those who earned nothing.
func Score(in ScoreInput) map[uint]Award {
	awards := make(map[uint]Award, len(in.Participants))
	add := func(id uint, points int, line string) {
		award := awards[id]
		award.Points += points
		award.Breakdown = append(award.Breakdown, line)
		awards[id] = award
	}
	for _, id := range in.Participants {
		awards[id] = Award{}
	}

	found := 0
	for _, vote := range in.Votes {
		if vote.CardID == in.StorytellerCardID {
			found++
		}
	}
	voters := len(in.Participants) - 1

	if found == 0 || found == voters {
		for _, id := range in.Participants {
			if id == in.StorytellerID {
				add(id, 0, "+0 everyone or nobody found your card")
				continue
			}
			add(id, allOrNonePoints, fmt.Sprintf("+%d everyone or nobody found the storyteller", allOrNonePoints))
		}
	} else {
		add(in.StorytellerID, storytellerFoundPoints, fmt.Sprintf("+%d some players found your card", storytellerFoundPoints))
		for _, vote := range in.Votes {
			if vote.CardID == in.StorytellerCardID {
				add(vote.VoterID, guesserFoundPoints, fmt.Sprintf("+%d found the storyteller's card", guesserFoundPoints))
			}
		}
	}

	for _, submission := range in.Submissions {
		if submission.ParticipantID == in.StorytellerID {
			continue
		}
		received := 0
		for _, vote := range in.Votes {
			if vote.CardID == submission.CardID {
				received++
			}
		}
		if received > 0 {
			add(submission.ParticipantID, received, fmt.Sprintf("+%d bonus for %d vote(s) on your card", received, received))
		}
	}
	for _, id := range in.Participants {
		if len(awards[id].Breakdown) == 0 {
			add(id, 0, "+0 no points this round")
		}
	}
	return awards
}
