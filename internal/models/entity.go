package models

import "time"

// Entity is a business sub-identity (legal/billing profile) under a
// BUSINESS organization. Whenever an organization has entities, exactly
// one of them is the default.
type Entity struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	OrgID     int64  `gorm:"uniqueIndex:idx_entity_org_slug;index;not null" json:"org_id"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Slug      string `gorm:"uniqueIndex:idx_entity_org_slug;size:200;not null" json:"slug"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
