package game

import (
	"encoding/json"

	"story-cards/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	eventRoomCreated   = "room_created"
	eventPlayerJoined  = "player_joined"
	eventPlayerReady   = "player_ready"
	eventPlayerLeft    = "player_left"
	eventHostChanged   = "host_changed"
	eventPresence      = "presence_changed"
	eventGameStarted   = "game_started"
	eventClueSubmitted = "clue_submitted"
	eventCardSubmitted = "card_submitted"
	eventVoteCast      = "vote_cast"
	eventRoundScored   = "round_scored"
	eventRoundForced   = "round_forced"
	eventRoundStarted  = "round_started"
	eventGameFinished  = "game_finished"
	eventRoomClosed    = "room_closed"
	eventRoomAbandoned = "room_abandoned"
	eventPhaseAdvanced = "phase_advanced"
)

type EventPayload struct {
	Code        string         `json:"code,omitempty"`
	PlayerName  string         `json:"player,omitempty"`
	RoundNumber int            `json:"round_number,omitempty"`
	Phase       string         `json:"phase,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Clue        string         `json:"clue,omitempty"`
	Ready       *bool          `json:"ready,omitempty"`
	Online      *bool          `json:"online,omitempty"`
	Count       int            `json:"count,omitempty"`
	Points      map[string]int `json:"points,omitempty"`
}

type eventRef struct {
	round       *uint
	participant *uint
}

func recordEvent(tx *gorm.DB, room *db.Room, ref eventRef, eventType string, payload EventPayload) error {
	payload.Code = room.Code
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return tx.Create(&db.Event{
		RoomID:        room.ID,
		RoundID:       ref.round,
		ParticipantID: ref.participant,
		Type:          eventType,
		Payload:       datatypes.JSON(data),
	}).Error
}

func uintRef(id uint) *uint {
	return &id
}
