package models

import "time"

type User struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string `gorm:"size:200" json:"name"`
	Image        string `gorm:"size:500" json:"image,omitempty"`
	AuthProvider string `gorm:"size:20;default:local" json:"-"`
	PasswordHash string `gorm:"size:255" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Memberships []OrgMember `gorm:"foreignKey:UserID" json:"-"`
}
