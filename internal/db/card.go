package db

import "time"

type Card struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Filename  string    `gorm:"size:255;not null;uniqueIndex"`
	ImageURL  string    `gorm:"size:512;not null"`
	IsActive  bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
