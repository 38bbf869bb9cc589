package db

import (
	"time"

	"gorm.io/datatypes"
)

type Participant struct {
	ID          uint                        `gorm:"primaryKey"`
	RoomID      uint                        `gorm:"index;not null;uniqueIndex:idx_participants_room_identity"`
	IdentityID  string                      `gorm:"size:64;not null;uniqueIndex:idx_participants_room_identity"`
	DisplayName string                      `gorm:"size:64;not null"`
	Ready       bool                        `gorm:"not null;default:false"`
	Online      bool                        `gorm:"not null;default:true"`
	Score       int                         `gorm:"not null;default:0"`
	Seat        int                         `gorm:"not null"`
	HandCardIDs datatypes.JSONSlice[string] `gorm:"not null"`
	JoinedAt    time.Time                   `gorm:"not null"`
	LastSeenAt  time.Time                   `gorm:"not null"`
	CreatedAt   time.Time                   `gorm:"not null"`
	UpdatedAt   time.Time                   `gorm:"not null"`
}
