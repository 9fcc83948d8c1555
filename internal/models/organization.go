package models

import "time"

type Organization struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"size:200;not null" json:"name"`
	Slug      string  `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Type      OrgType `gorm:"size:20;not null;default:BUSINESS" json:"type"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Members       []OrgMember    `gorm:"foreignKey:OrgID" json:"-"`
	Groups        []Group        `gorm:"foreignKey:OrgID" json:"-"`
	Entities      []Entity       `gorm:"foreignKey:OrgID" json:"-"`
	Invitations   []Invitation   `gorm:"foreignKey:OrgID" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:OrgID" json:"-"`
}
