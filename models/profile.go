package models

import "time"

// Profile represents a user's profile (one-to-one with User)
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	// Active indicates whether the account may log in and appear in
	// seller listings. Toggled by the admin endpoint instead of deleting.
	Active bool   `gorm:"default:true;not null"`
	UserID uint   `gorm:"uniqueIndex;not null"` // one-to-one relation
	User   User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name   string `gorm:"size:255;not null"`
	Email  string `gorm:"size:255"`
	Phone  string `gorm:"size:64"`
}
