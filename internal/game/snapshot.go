package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"story-cards/internal/db"

	"gorm.io/gorm"
)

type ParticipantView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Initial string `json:"initial"`
	Color   string `json:"color"`
	Seat    int    `json:"seat"`
	Ready   bool   `json:"ready"`
	Online  bool   `json:"online"`
	Score   int    `json:"score"`
	IsHost  bool   `json:"is_host"`
	IsMe    bool   `json:"is_me"`
}

type RoomView struct {
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Status       string            `json:"status"`
	Capacity     int               `json:"capacity"`
	TargetScore  int               `json:"target_score"`
	HandSize     int               `json:"hand_size"`
	CurrentRound int               `json:"current_round"`
	DeckSize     int               `json:"deck_size"`
	Participants []ParticipantView `json:"participants"`
	IsMember     bool              `json:"is_member"`
	IsHost       bool              `json:"is_host"`
	CanStart     bool              `json:"can_start"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
}

type CardView struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
}

type VoterView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type SubmittedCardView struct {
	CardView
	Mine          bool        `json:"mine"`
	SubmitterID   uint        `json:"submitter_id,omitempty"`
	SubmitterName string      `json:"submitter_name,omitempty"`
	IsStoryteller bool        `json:"is_storyteller,omitempty"`
	Voters        []VoterView `json:"voters,omitempty"`
}

type AwardView struct {
	ParticipantID uint     `json:"participant_id"`
	Name          string   `json:"name"`
	Points        int      `json:"points"`
	Breakdown     []string `json:"breakdown"`
}

type RoundView struct {
	Number              int                 `json:"number"`
	Phase               string              `json:"phase"`
	StorytellerID       uint                `json:"storyteller_id"`
	StorytellerName     string              `json:"storyteller_name"`
	IsStoryteller       bool                `json:"is_storyteller"`
	Clue                string              `json:"clue,omitempty"`
	Forced              bool                `json:"forced"`
	Submitted           int                 `json:"submitted"`
	SubmissionsExpected int                 `json:"submissions_expected"`
	Votes               int                 `json:"votes"`
	VotesExpected       int                 `json:"votes_expected"`
	HasSubmitted        bool                `json:"has_submitted"`
	HasVoted            bool                `json:"has_voted"`
	MyCardID            string              `json:"my_card_id,omitempty"`
	MyVoteCardID        string              `json:"my_vote_card_id,omitempty"`
	Cards               []SubmittedCardView `json:"cards,omitempty"`
	Awards              []AwardView         `json:"awards,omitempty"`
}

type GameView struct {
	Room      RoomView          `json:"room"`
	Round     *RoundView        `json:"round,omitempty"`
	Hand      []CardView        `json:"hand"`
	Standings []ParticipantView `json:"standings"`
	Winner    *ParticipantView  `json:"winner,omitempty"`
}

type EventView struct {
	ID            uint            `json:"id"`
	Type          string          `json:"type"`
	RoundID       *uint           `json:"round_id,omitempty"`
	ParticipantID *uint           `json:"participant_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Room returns the lobby view. Non-members may read it so they can decide to join.
func (e *Engine) Room(ctx context.Context, code string, actor Actor) (RoomView, error) {
	if err := actor.validate(); err != nil {
		return RoomView{}, err
	}
	var view RoomView
	err := e.view(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		var participants []db.Participant
		if err := tx.Where("room_id = ?", room.ID).Order("seat asc").Find(&participants).Error; err != nil {
			return err
		}
		view = buildRoomView(room, participants, actor.ID)
		return nil
	})
	return view, err
}

// Game returns everything a member needs to render the table. Hidden information stays hidden:
// cards show their voters as soon as votes are cast, but submitters are only attributed once the
// round reaches RESULTS.
func (e *Engine) Game(ctx context.Context, code string, actor Actor) (GameView, error) {
	if err := actor.validate(); err != nil {
		return GameView{}, err
	}
	var view GameView
	err := e.view(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		var participants []db.Participant
		if err := tx.Where("room_id = ?", room.ID).Order("seat asc").Find(&participants).Error; err != nil {
			return err
		}
		view.Room = buildRoomView(room, participants, actor.ID)
		if !view.Room.IsMember {
			return fmt.Errorf("%w: not a participant of room %s", ErrForbidden, room.Code)
		}
		var me *db.Participant
		byID := make(map[uint]*db.Participant, len(participants))
		for i := range participants {
			byID[participants[i].ID] = &participants[i]
			if participants[i].IdentityID == actor.ID {
				me = &participants[i]
			}
		}

		view.Hand = make([]CardView, 0, len(me.HandCardIDs))
		for _, id := range me.HandCardIDs {
			view.Hand = append(view.Hand, CardView{ID: id})
		}
		view.Standings = standings(view.Room.Participants)
		if room.WinnerID != nil {
			for _, p := range view.Room.Participants {
				if p.ID == *room.WinnerID {
					winner := p
					view.Winner = &winner
				}
			}
		}
		if room.CurrentRoundID == nil {
			return nil
		}
		var round db.Round
		if err := tx.Where("id = ?", *room.CurrentRoundID).Take(&round).Error; err != nil {
			return err
		}
		rv, err := buildRoundView(tx, &round, me, byID, len(participants))
		if err != nil {
			return err
		}
		view.Round = rv
		return nil
	})
	if err != nil {
		return GameView{}, err
	}
	if err := e.locateImages(ctx, &view); err != nil {
		return GameView{}, err
	}
	return view, nil
}

// Events lists the room's audit log after the given id.
func (e *Engine) Events(ctx context.Context, code string, actor Actor, afterID uint, limit int) ([]EventView, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var out []EventView
	err := e.view(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		member, err := findMember(tx, room.ID, actor.ID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("%w: not a participant of room %s", ErrForbidden, room.Code)
		}
		var events []db.Event
		if err := tx.Where("room_id = ? AND id > ?", room.ID, afterID).
			Order("id asc").
			Limit(limit).
			Find(&events).Error; err != nil {
			return err
		}
		out = make([]EventView, 0, len(events))
		for _, ev := range events {
			out = append(out, EventView{
				ID:            ev.ID,
				Type:          ev.Type,
				RoundID:       ev.RoundID,
				ParticipantID: ev.ParticipantID,
				Payload:       json.RawMessage(ev.Payload),
				CreatedAt:     ev.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func buildRoomView(room *db.Room, participants []db.Participant, identityID string) RoomView {
	view := RoomView{
		Code:         room.Code,
		Name:         room.Name,
		Status:       room.Status,
		Capacity:     room.Capacity,
		TargetScore:  room.TargetScore,
		HandSize:     room.HandSize,
		CurrentRound: room.CurrentRound,
		DeckSize:     len(room.DeckCardIDs),
		Participants: make([]ParticipantView, 0, len(participants)),
		IsHost:       room.HostIdentityID == identityID,
		CreatedAt:    room.CreatedAt,
		StartedAt:    room.StartedAt,
		EndedAt:      room.EndedAt,
	}
	allReady := true
	for _, p := range participants {
		isHost := p.IdentityID == room.HostIdentityID
		isMe := p.IdentityID == identityID
		if isMe {
			view.IsMember = true
		}
		if !isHost && !p.Ready {
			allReady = false
		}
		view.Participants = append(view.Participants, ParticipantView{
			ID:      p.ID,
			Name:    p.DisplayName,
			Initial: initial(p.DisplayName),
			Color:   pickPlayerColor(p.Seat),
			Seat:    p.Seat,
			Ready:   p.Ready || isHost,
			Online:  p.Online,
			Score:   p.Score,
			IsHost:  isHost,
			IsMe:    isMe,
		})
	}
	view.CanStart = view.IsHost &&
		room.Status == db.RoomWaiting &&
		len(participants) >= MinPlayers &&
		allReady
	return view
}

// standings orders participants by score, highest first, falling back to seat order.
func standings(participants []ParticipantView) []ParticipantView {
	out := make([]ParticipantView, len(participants))
	copy(out, participants)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Seat < out[j].Seat
	})
	return out
}

func buildRoundView(tx *gorm.DB, round *db.Round, me *db.Participant, byID map[uint]*db.Participant, players int) (*RoundView, error) {
	rv := &RoundView{
		Number:              round.Number,
		Phase:               round.Phase,
		StorytellerID:       round.StorytellerID,
		IsStoryteller:       round.StorytellerID == me.ID,
		Clue:                round.Clue,
		Forced:              round.Forced,
		SubmissionsExpected: players,
		VotesExpected:       players - 1,
	}
	if storyteller, ok := byID[round.StorytellerID]; ok {
		rv.StorytellerName = storyteller.DisplayName
	}

	var submissions []db.Submission
	if err := tx.Where("round_id = ?", round.ID).Order("card_id asc").Find(&submissions).Error; err != nil {
		return nil, err
	}
	var votes []db.Vote
	if err := tx.Where("round_id = ?", round.ID).Order("id asc").Find(&votes).Error; err != nil {
		return nil, err
	}
	rv.Submitted = len(submissions)
	rv.Votes = len(votes)
	for _, s := range submissions {
		if s.ParticipantID == me.ID {
			rv.HasSubmitted = true
			rv.MyCardID = s.CardID
		}
	}
	for _, v := range votes {
		if v.ParticipantID == me.ID {
			rv.HasVoted = true
			rv.MyVoteCardID = v.CardID
		}
	}
	if !cardsRevealed(round.Phase) {
		return rv, nil
	}

	results := round.Phase == db.PhaseResults
	votersByCard := make(map[string][]VoterView)
	for _, v := range votes {
		voter := VoterView{ID: v.ParticipantID}
		if p, ok := byID[v.ParticipantID]; ok {
			voter.Name = p.DisplayName
		}
		votersByCard[v.CardID] = append(votersByCard[v.CardID], voter)
	}
	rv.Cards = make([]SubmittedCardView, 0, len(submissions))
	for _, s := range submissions {
		card := SubmittedCardView{
			CardView: CardView{ID: s.CardID},
			Mine:     s.ParticipantID == me.ID,
			Voters:   votersByCard[s.CardID],
		}
		// Authorship stays hidden until the round is scored.
		if results {
			card.SubmitterID = s.ParticipantID
			card.IsStoryteller = s.IsStoryteller
			if p, ok := byID[s.ParticipantID]; ok {
				card.SubmitterName = p.DisplayName
			}
		}
		rv.Cards = append(rv.Cards, card)
	}
	if !results {
		return rv, nil
	}

	var awards []db.RoundAward
	if err := tx.Where("round_id = ?", round.ID).Order("id asc").Find(&awards).Error; err != nil {
		return nil, err
	}
	rv.Awards = make([]AwardView, 0, len(awards))
	for _, a := range awards {
		av := AwardView{ParticipantID: a.ParticipantID, Points: a.Points, Breakdown: []string(a.Breakdown)}
		if p, ok := byID[a.ParticipantID]; ok {
			av.Name = p.DisplayName
		}
		rv.Awards = append(rv.Awards, av)
	}
	return rv, nil
}

func (e *Engine) locateImages(ctx context.Context, view *GameView) error {
	ids := make([]string, 0, len(view.Hand))
	for _, card := range view.Hand {
		ids = append(ids, card.ID)
	}
	if view.Round != nil {
		for _, card := range view.Round.Cards {
			ids = append(ids, card.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	located, err := e.catalog.Locate(ctx, ids)
	if err != nil {
		return err
	}
	for i := range view.Hand {
		view.Hand[i].ImageURL = located[view.Hand[i].ID]
	}
	if view.Round != nil {
		for i := range view.Round.Cards {
			view.Round.Cards[i].ImageURL = located[view.Round.Cards[i].ID]
		}
	}
	return nil
}
