package db

import (
	"time"

	"gorm.io/datatypes"
)

// RoundAward is the persisted scoring outcome for one participant in one round.
type RoundAward struct {
	ID            uint                        `gorm:"primaryKey"`
	RoundID       uint                        `gorm:"index;not null;uniqueIndex:idx_round_awards_round_participant"`
	ParticipantID uint                        `gorm:"index;not null;uniqueIndex:idx_round_awards_round_participant"`
	Points        int                         `gorm:"not null"`
	Breakdown     datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt     time.Time                   `gorm:"not null"`
}
