package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"story-cards/internal/db"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// turn is the locked state a round action works against.
type turn struct {
	room         *db.Room
	round        *db.Round
	participants []db.Participant
	actor        *db.Participant
}

func (t *turn) isStoryteller() bool {
	return t.actor.ID == t.round.StorytellerID
}

func (t *turn) participantIDs() []uint {
	ids := make([]uint, 0, len(t.participants))
	for _, p := range t.participants {
		ids = append(ids, p.ID)
	}
	return ids
}

func (t *turn) logFields() []zap.Field {
	return []zap.Field{
		zap.String("room", t.room.Code),
		zap.Int("round", t.round.Number),
		zap.String("phase", t.round.Phase),
		zap.String("player", t.actor.DisplayName),
	}
}

func loadTurn(tx *gorm.DB, room *db.Room, identityID string) (*turn, error) {
	if room.Status != db.RoomPlaying {
		return nil, fmt.Errorf("%w: room is %s", ErrWrongPhase, room.Status)
	}
	round, err := lockRound(tx, room)
	if err != nil {
		return nil, err
	}
	participants, err := lockParticipants(tx, room.ID)
	if err != nil {
		return nil, err
	}
	t := &turn{room: room, round: round, participants: participants}
	for i := range participants {
		if participants[i].IdentityID == identityID {
			t.actor = &participants[i]
			break
		}
	}
	if t.actor == nil {
		return nil, fmt.Errorf("%w: not a participant of room %s", ErrForbidden, room.Code)
	}
	return t, nil
}

func (e *Engine) playCard(tx *gorm.DB, t *turn, cardID string, storyteller bool) error {
	hand, err := TakeFromHand(t.actor.HandCardIDs, cardID)
	if err != nil {
		return err
	}
	if err := tx.Create(&db.Submission{
		RoundID:       t.round.ID,
		ParticipantID: t.actor.ID,
		CardID:        cardID,
		IsStoryteller: storyteller,
	}).Error; err != nil {
		return err
	}
	t.actor.HandCardIDs = hand
	return tx.Model(t.actor).Update("hand_card_ids", datatypes.JSONSlice[string](hand)).Error
}

// SubmitClue records the storyteller's card and clue and opens submissions.
func (e *Engine) SubmitClue(ctx context.Context, code string, actor Actor, cardID, clue string) error {
	if err := actor.validate(); err != nil {
		return err
	}
	clue, err := validateClue(clue)
	if err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		t, err := loadTurn(tx, room, actor.ID)
		if err != nil {
			return err
		}
		if t.round.Phase != db.PhaseStorytellerTurn {
			return fmt.Errorf("%w: round is in %s", ErrWrongPhase, t.round.Phase)
		}
		if !t.isStoryteller() {
			return fmt.Errorf("%w: only the storyteller gives the clue", ErrForbidden)
		}
		if err := e.playCard(tx, t, cardID, true); err != nil {
			return err
		}
		if err := advancePhase(tx, t.round, db.PhasePlayerSubmission, map[string]any{
			"clue":                clue,
			"storyteller_card_id": cardID,
		}); err != nil {
			return err
		}
		e.log.Info("clue submitted", t.logFields()...)
		return recordEvent(tx, room, eventRef{round: uintRef(t.round.ID), participant: uintRef(t.actor.ID)}, eventClueSubmitted, EventPayload{
			PlayerName:  t.actor.DisplayName,
			RoundNumber: t.round.Number,
			Phase:       t.round.Phase,
			Clue:        clue,
		})
	})
}

// SubmitCard plays a card for the clue. The last missing submission opens voting.
func (e *Engine) SubmitCard(ctx context.Context, code string, actor Actor, cardID string) error {
	if err := actor.validate(); err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		t, err := loadTurn(tx, room, actor.ID)
		if err != nil {
			return err
		}
		if t.round.Phase != db.PhasePlayerSubmission {
			return fmt.Errorf("%w: round is in %s", ErrWrongPhase, t.round.Phase)
		}
		if t.isStoryteller() {
			return fmt.Errorf("%w: the storyteller already played", ErrForbidden)
		}
		var mine int64
		if err := tx.Model(&db.Submission{}).
			Where("round_id = ? AND participant_id = ?", t.round.ID, t.actor.ID).
			Count(&mine).Error; err != nil {
			return err
		}
		if mine > 0 {
			return fmt.Errorf("%w: card already submitted this round", ErrAlreadyActed)
		}
		if err := e.playCard(tx, t, cardID, false); err != nil {
			return err
		}
		ref := eventRef{round: uintRef(t.round.ID), participant: uintRef(t.actor.ID)}
		if err := recordEvent(tx, room, ref, eventCardSubmitted, EventPayload{
			PlayerName:  t.actor.DisplayName,
			RoundNumber: t.round.Number,
		}); err != nil {
			return err
		}

		var submitted int64
		if err := tx.Model(&db.Submission{}).Where("round_id = ?", t.round.ID).Count(&submitted).Error; err != nil {
			return err
		}
		e.log.Info("card submitted", append(t.logFields(), zap.Int64("submitted", submitted))...)
		if int(submitted) != len(t.participants) {
			return nil
		}
		if err := advancePhase(tx, t.round, db.PhaseVoting, nil); err != nil {
			return err
		}
		e.log.Info("voting opened", t.logFields()...)
		return recordEvent(tx, room, eventRef{round: uintRef(t.round.ID)}, eventPhaseAdvanced, EventPayload{
			RoundNumber: t.round.Number,
			Phase:       t.round.Phase,
			Count:       int(submitted),
		})
	})
}

// CastVote records a guess at the storyteller's card. The last missing vote scores the round.
func (e *Engine) CastVote(ctx context.Context, code string, actor Actor, cardID string) error {
	if err := actor.validate(); err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		t, err := loadTurn(tx, room, actor.ID)
		if err != nil {
			return err
		}
		if t.round.Phase != db.PhaseVoting {
			return fmt.Errorf("%w: round is in %s", ErrWrongPhase, t.round.Phase)
		}
		if t.isStoryteller() {
			return fmt.Errorf("%w: the storyteller does not vote", ErrForbidden)
		}
		var mine int64
		if err := tx.Model(&db.Vote{}).
			Where("round_id = ? AND participant_id = ?", t.round.ID, t.actor.ID).
			Count(&mine).Error; err != nil {
			return err
		}
		if mine > 0 {
			return fmt.Errorf("%w: vote already cast this round", ErrAlreadyActed)
		}
		var target db.Submission
		err = tx.Where("round_id = ? AND card_id = ?", t.round.ID, cardID).Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: card %s was not played this round", ErrNotFound, cardID)
		}
		if err != nil {
			return err
		}
		if target.ParticipantID == t.actor.ID {
			return fmt.Errorf("%w: cannot vote for your own card", ErrForbidden)
		}
		if err := tx.Create(&db.Vote{
			RoundID:       t.round.ID,
			ParticipantID: t.actor.ID,
			SubmissionID:  target.ID,
			CardID:        target.CardID,
		}).Error; err != nil {
			return err
		}
		ref := eventRef{round: uintRef(t.round.ID), participant: uintRef(t.actor.ID)}
		if err := recordEvent(tx, room, ref, eventVoteCast, EventPayload{
			PlayerName:  t.actor.DisplayName,
			RoundNumber: t.round.Number,
		}); err != nil {
			return err
		}

		var votes int64
		if err := tx.Model(&db.Vote{}).Where("round_id = ?", t.round.ID).Count(&votes).Error; err != nil {
			return err
		}
		e.log.Info("vote cast", append(t.logFields(), zap.Int64("votes", votes))...)
		if int(votes) != len(t.participants)-1 {
			return nil
		}
		return e.finishVoting(tx, t, false)
	})
}

// finishVoting closes VOTING. The phase write, the awards and the score increments commit together;
// the conditional phase write lets exactly one caller get this far per round.
func (e *Engine) finishVoting(tx *gorm.DB, t *turn, forced bool) error {
	award := !forced && t.round.StorytellerCardID != ""
	now := e.now()
	extra := map[string]any{}
	if forced {
		extra["forced"] = true
	}
	if award {
		extra["scored_at"] = now
	}
	if err := advancePhase(tx, t.round, db.PhaseResults, extra); err != nil {
		return err
	}
	if !award {
		e.log.Info("round closed without scoring", append(t.logFields(), zap.Bool("forced", forced))...)
		return recordEvent(tx, t.room, eventRef{round: uintRef(t.round.ID)}, eventRoundForced, EventPayload{
			RoundNumber: t.round.Number,
			Phase:       t.round.Phase,
			Reason:      "no points awarded",
		})
	}

	input, err := scoreInput(tx, t)
	if err != nil {
		return err
	}
	awards := Score(input)
	rows := make([]db.RoundAward, 0, len(awards))
	summary := make(map[string]int, len(awards))
	for _, p := range t.participants {
		a, ok := awards[p.ID]
		if !ok {
			continue
		}
		breakdown := a.Breakdown
		if breakdown == nil {
			breakdown = []string{}
		}
		rows = append(rows, db.RoundAward{
			RoundID:       t.round.ID,
			ParticipantID: p.ID,
			Points:        a.Points,
			Breakdown:     datatypes.JSONSlice[string](breakdown),
		})
		summary[strconv.FormatUint(uint64(p.ID), 10)] = a.Points
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	for _, row := range rows {
		if row.Points <= 0 {
			continue
		}
		if err := tx.Model(&db.Participant{}).
			Where("id = ?", row.ParticipantID).
			UpdateColumn("score", gorm.Expr("score + ?", row.Points)).Error; err != nil {
			return err
		}
	}
	e.log.Info("round scored", append(t.logFields(), zap.Any("points", summary))...)
	return recordEvent(tx, t.room, eventRef{round: uintRef(t.round.ID)}, eventRoundScored, EventPayload{
		RoundNumber: t.round.Number,
		Phase:       t.round.Phase,
		Points:      summary,
	})
}

func scoreInput(tx *gorm.DB, t *turn) (ScoreInput, error) {
	var submissions []db.Submission
	if err := tx.Where("round_id = ?", t.round.ID).Order("id asc").Find(&submissions).Error; err != nil {
		return ScoreInput{}, err
	}
	var votes []db.Vote
	if err := tx.Where("round_id = ?", t.round.ID).Order("id asc").Find(&votes).Error; err != nil {
		return ScoreInput{}, err
	}
	input := ScoreInput{
		StorytellerID:     t.round.StorytellerID,
		StorytellerCardID: t.round.StorytellerCardID,
		Participants:      t.participantIDs(),
	}
	for _, s := range submissions {
		input.Submissions = append(input.Submissions, ScoredSubmission{ParticipantID: s.ParticipantID, CardID: s.CardID})
	}
	for _, v := range votes {
		input.Votes = append(input.Votes, ScoredVote{VoterID: v.ParticipantID, CardID: v.CardID})
	}
	return input, nil
}

// AdvanceRound ends the game if someone reached the target score, otherwise refills hands and
// hands the storyteller role to the next seat.
func (e *Engine) AdvanceRound(ctx context.Context, code string, actor Actor) error {
	if err := actor.validate(); err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		if room.HostIdentityID != actor.ID {
			return fmt.Errorf("%w: only the host can start the next round", ErrForbidden)
		}
		t, err := loadTurn(tx, room, actor.ID)
		if err != nil {
			return err
		}
		if t.round.Phase != db.PhaseResults {
			return fmt.Errorf("%w: round is in %s", ErrWrongPhase, t.round.Phase)
		}
		now := e.now()

		if winner := findWinner(t.participants, room.TargetScore); winner != nil {
			if err := tx.Model(room).Updates(map[string]any{
				"status":    db.RoomFinished,
				"winner_id": winner.ID,
				"ended_at":  now,
			}).Error; err != nil {
				return err
			}
			e.log.Info("game finished",
				zap.String("room", room.Code),
				zap.Int("round", t.round.Number),
				zap.String("winner", winner.DisplayName),
				zap.Int("score", winner.Score),
			)
			return recordEvent(tx, room, eventRef{round: uintRef(t.round.ID), participant: uintRef(winner.ID)}, eventGameFinished, EventPayload{
				PlayerName:  winner.DisplayName,
				RoundNumber: t.round.Number,
				Count:       winner.Score,
			})
		}

		deck := []string(room.DeckCardIDs)
		for i := range t.participants {
			p := &t.participants[i]
			before := len(p.HandCardIDs)
			var hand []string
			hand, deck = Replenish(p.HandCardIDs, deck, room.HandSize)
			if len(hand) == before {
				continue
			}
			if err := tx.Model(p).Update("hand_card_ids", datatypes.JSONSlice[string](hand)).Error; err != nil {
				return err
			}
		}
		if len(deck) == 0 {
			e.log.Info("deck exhausted", zap.String("room", room.Code), zap.Int("round", t.round.Number))
		}

		storyteller := nextStoryteller(t.participants, t.round.StorytellerID)
		next := db.Round{
			RoomID:        room.ID,
			Number:        t.round.Number + 1,
			StorytellerID: storyteller.ID,
			Phase:         db.PhaseStorytellerTurn,
		}
		if err := tx.Create(&next).Error; err != nil {
			return err
		}
		if err := tx.Model(room).Updates(map[string]any{
			"current_round":    next.Number,
			"current_round_id": next.ID,
			"deck_card_ids":    datatypes.JSONSlice[string](deck),
		}).Error; err != nil {
			return err
		}
		e.log.Info("round started",
			zap.String("room", room.Code),
			zap.Int("round", next.Number),
			zap.String("storyteller", storyteller.DisplayName),
			zap.Int("deck", len(deck)),
		)
		return recordEvent(tx, room, eventRef{round: uintRef(next.ID), participant: uintRef(storyteller.ID)}, eventRoundStarted, EventPayload{
			PlayerName:  storyteller.DisplayName,
			RoundNumber: next.Number,
			Phase:       next.Phase,
			Count:       len(deck),
		})
	})
}

// ForceAdvance moves a stuck round one phase forward regardless of who has acted. A round forced
// out of VOTING awards no points. It returns the new phase.
func (e *Engine) ForceAdvance(ctx context.Context, code string, actor Actor) (string, error) {
	if err := actor.validate(); err != nil {
		return "", err
	}
	var phase string
	err := e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		if room.HostIdentityID != actor.ID {
			return fmt.Errorf("%w: only the host can force the round", ErrForbidden)
		}
		t, err := loadTurn(tx, room, actor.ID)
		if err != nil {
			return err
		}
		to, ok := nextPhase(t.round.Phase)
		if !ok {
			return fmt.Errorf("%w: round already has results, start the next round", ErrWrongPhase)
		}
		from := t.round.Phase
		if to == db.PhaseResults {
			if err := e.finishVoting(tx, t, true); err != nil {
				return err
			}
			phase = t.round.Phase
			return nil
		}
		if err := advancePhase(tx, t.round, to, map[string]any{"forced": true}); err != nil {
			return err
		}
		phase = t.round.Phase
		e.log.Warn("round forced", append(t.logFields(), zap.String("from", from))...)
		return recordEvent(tx, room, eventRef{round: uintRef(t.round.ID), participant: uintRef(t.actor.ID)}, eventRoundForced, EventPayload{
			RoundNumber: t.round.Number,
			Phase:       phase,
			Reason:      "forced from " + from,
		})
	})
	return phase, err
}

// findWinner returns the first participant in seat order at or above target.
func findWinner(participants []db.Participant, target int) *db.Participant {
	for i := range participants {
		if participants[i].Score >= target {
			return &participants[i]
		}
	}
	return nil
}

func nextStoryteller(participants []db.Participant, current uint) db.Participant {
	for i, p := range participants {
		if p.ID == current {
			return participants[(i+1)%len(participants)]
		}
	}
	return participants[0]
}
