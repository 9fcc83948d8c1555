package models

import "time"

// SSOToken is a short-lived single-use token minted for cross-domain
// sign-in. Rows are deleted on first successful validation.
type SSOToken struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	Token     string    `gorm:"size:128;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
