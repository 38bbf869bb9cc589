package db

import "time"

type Submission struct {
	ID            uint      `gorm:"primaryKey"`
	RoundID       uint      `gorm:"index;not null;uniqueIndex:idx_submissions_round_participant;uniqueIndex:idx_submissions_round_card"`
	ParticipantID uint      `gorm:"index;not null;uniqueIndex:idx_submissions_round_participant"`
	CardID        string    `gorm:"size:64;not null;uniqueIndex:idx_submissions_round_card"`
	IsStoryteller bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"not null"`
}
