package models

import "time"

// Subscription statuses as reported by the billing provider. Anything
// not listed here is treated as not entitled.
const (
	SubActive   = "active"
	SubTrialing = "trialing"
	SubPastDue  = "past_due"
	SubCanceled = "canceled"
)

// Subscription gates whether an otherwise-entitled user can open an
// app. The Stripe identifiers are opaque data here; billing calls
// happen outside this service.
type Subscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	OrgID                int64      `gorm:"uniqueIndex:idx_sub_org_app;index;not null" json:"org_id"`
	AppSlug              string     `gorm:"uniqueIndex:idx_sub_org_app;size:100;not null" json:"app_slug"`
	Status               string     `gorm:"size:32;not null" json:"status"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	StripeCustomerID     string     `gorm:"size:100" json:"-"`
	StripeSubscriptionID string     `gorm:"size:100" json:"-"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
