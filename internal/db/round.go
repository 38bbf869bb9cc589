package db

import "time"

const (
	PhaseStorytellerTurn  = "STORYTELLER_TURN"
	PhasePlayerSubmission = "PLAYER_SUBMISSION"
	PhaseVoting           = "VOTING"
	PhaseResults          = "RESULTS"
)

type Round struct {
	ID                uint   `gorm:"primaryKey"`
	RoomID            uint   `gorm:"index;not null;uniqueIndex:idx_rounds_room_number"`
	Number            int    `gorm:"not null;uniqueIndex:idx_rounds_room_number"`
	StorytellerID     uint   `gorm:"index;not null"`
	Phase             string `gorm:"size:32;not null"`
	Clue              string `gorm:"size:140;not null;default:''"`
	StorytellerCardID string `gorm:"size:64;not null;default:''"`
	Forced            bool   `gorm:"not null;default:false"`
	Version           int    `gorm:"not null;default:0"`
	ScoredAt          *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}
