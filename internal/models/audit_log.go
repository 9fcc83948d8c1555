package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	OrgID         int64          `gorm:"index;not null" json:"org_id"`
	UserID        int64          `gorm:"index" json:"user_id"` // nullable (system actions possible)
	Action        string         `gorm:"size:200;not null" json:"action"` // e.g. "members.change_role"
	ResourceType  string         `gorm:"size:100" json:"resource_type"`
	ResourceID    int64          `gorm:"index" json:"resource_id"`
	Metadata      datatypes.JSON `gorm:"type:json" json:"metadata"`
	InitiatorName string         `gorm:"size:255" json:"initiator_name"`
	IP            string         `gorm:"size:64" json:"ip"`
	UserAgent     string         `gorm:"size:255" json:"user_agent"`
	CreatedAt     time.Time      `json:"created_at"`
}
