package db

import "time"

type Vote struct {
	ID            uint      `gorm:"primaryKey"`
	RoundID       uint      `gorm:"index;not null;uniqueIndex:idx_votes_round_participant"`
	ParticipantID uint      `gorm:"index;not null;uniqueIndex:idx_votes_round_participant"`
	SubmissionID  uint      `gorm:"index;not null"`
	CardID        string    `gorm:"size:64;not null"`
	CreatedAt     time.Time `gorm:"not null"`
}
