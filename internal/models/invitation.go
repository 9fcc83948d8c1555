package models

import (
	"strings"
	"time"
)

// Invitation is a pending, time-boxed membership grant addressed to an
// email. App slugs for EXTERNAL invitations are persisted as a single
// comma-joined column; the accessors below are the only encode/decode
// boundary — nothing else parses the raw value.
type Invitation struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	OrgID     int64     `gorm:"uniqueIndex:idx_invite_email_org;index;not null" json:"org_id"`
	Email     string    `gorm:"uniqueIndex:idx_invite_email_org;size:255;not null" json:"email"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	AppSlugs  string    `gorm:"size:500" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time

	Org *Organization `gorm:"foreignKey:OrgID" json:"org,omitempty"`
}

// Pending reports whether the invitation is still usable at now.
// Expiry is evaluated lazily; there is no sweeping process.
func (i Invitation) Pending(now time.Time) bool {
	return i.ExpiresAt.After(now)
}

// SetAppSlugList encodes slugs into the stored comma-joined column.
func (i *Invitation) SetAppSlugList(slugs []string) {
	i.AppSlugs = strings.Join(slugs, ",")
}

// AppSlugList decodes the stored column. An empty or missing value
// means no grants.
func (i Invitation) AppSlugList() []string {
	if i.AppSlugs == "" {
		return nil
	}
	parts := strings.Split(i.AppSlugs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
