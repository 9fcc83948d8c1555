package models

import "time"

// Group is a named subset of an organization's members with its own
// app-grant set. Group grants compose with direct grants as a union.
type Group struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	OrgID       int64  `gorm:"uniqueIndex:idx_group_org_name;index;not null" json:"org_id"`
	Name        string `gorm:"uniqueIndex:idx_group_org_name;size:200;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Members   []GroupMember    `gorm:"foreignKey:GroupID" json:"-"`
	AppAccess []GroupAppAccess `gorm:"foreignKey:GroupID" json:"-"`
}

type GroupMember struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	GroupID   int64 `gorm:"uniqueIndex:idx_group_member;index;not null" json:"group_id"`
	MemberID  int64 `gorm:"uniqueIndex:idx_group_member;index;not null" json:"member_id"`
	CreatedAt time.Time

	Group  *Group     `gorm:"foreignKey:GroupID" json:"-"`
	Member *OrgMember `gorm:"foreignKey:MemberID" json:"-"`
}

type GroupAppAccess struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	GroupID   int64  `gorm:"uniqueIndex:idx_group_app;index;not null" json:"group_id"`
	AppSlug   string `gorm:"uniqueIndex:idx_group_app;size:100;not null" json:"app_slug"`
	CreatedAt time.Time
}
