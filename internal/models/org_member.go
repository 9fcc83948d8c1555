package models

import "time"

// OrgMember joins a user to an organization with a role. Unique per
// (user, org) pair; every organization keeps at least one OWNER.
type OrgMember struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	UserID    int64 `gorm:"uniqueIndex:idx_member_user_org;index;not null" json:"user_id"`
	OrgID     int64 `gorm:"uniqueIndex:idx_member_user_org;index;not null" json:"org_id"`
	Role      Role  `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User             *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Org              *Organization     `gorm:"foreignKey:OrgID" json:"-"`
	AppAccess        []MemberAppAccess `gorm:"foreignKey:MemberID" json:"-"`
	GroupMemberships []GroupMember     `gorm:"foreignKey:MemberID" json:"-"`
}

// MemberAppAccess is a direct (member, app) grant. Only meaningful for
// EXTERNAL members; an EXTERNAL member always holds at least one direct
// or group-derived grant.
type MemberAppAccess struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	MemberID  int64  `gorm:"uniqueIndex:idx_member_app;index;not null" json:"member_id"`
	AppSlug   string `gorm:"uniqueIndex:idx_member_app;size:100;not null" json:"app_slug"`
	CreatedAt time.Time
}
