package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoomWaiting   = "WAITING"
	RoomPlaying   = "PLAYING"
	RoomFinished  = "FINISHED"
	RoomAbandoned = "ABANDONED"
)

type Room struct {
	ID             uint                        `gorm:"primaryKey"`
	Code           string                      `gorm:"size:12;uniqueIndex;not null"`
	Name           string                      `gorm:"size:64;not null"`
	Status         string                      `gorm:"size:16;index;not null"`
	HostIdentityID string                      `gorm:"size:64;not null"`
	Capacity       int                         `gorm:"not null;default:8"`
	TargetScore    int                         `gorm:"not null;default:30"`
	HandSize       int                         `gorm:"not null;default:6"`
	CurrentRound   int                         `gorm:"not null;default:0"`
	CurrentRoundID *uint                       `gorm:"index"`
	DeckCardIDs    datatypes.JSONSlice[string] `gorm:"not null"`
	WinnerID       *uint
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
	StartedAt      *time.Time
	EndedAt        *time.Time
}

// Terminal reports whether the room can no longer change status.
func (r *Room) Terminal() bool {
	return r.Status == RoomFinished || r.Status == RoomAbandoned
}
