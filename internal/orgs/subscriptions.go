package orgs

import (
	"context"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

// billableStatuses are the subscription states shown on the billing
// surface. Canceled subscriptions are omitted.
var billableStatuses = []string{models.SubActive, models.SubTrialing, models.SubPastDue}

// Authorize checks that userID holds at least min in org. Exposed for
// surfaces outside this package that gate on membership, such as the
// audit trail.
func (s *Service) Authorize(ctx context.Context, userID, orgID int64, min models.Role) error {
	_, err := requireRole(s.db.WithContext(ctx), userID, orgID, min)
	return err
}

// Subscriptions returns the organization's billable subscriptions.
// Any member may view them; EXTERNAL members may not.
func (s *Service) Subscriptions(ctx context.Context, userID, orgID int64) ([]models.Subscription, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, userID, orgID, models.RoleMember); err != nil {
		return nil, err
	}

	var subs []models.Subscription
	err := db.Where("org_id = ? AND status IN ?", orgID, billableStatuses).
		Order("app_slug ASC").
		Find(&subs).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading subscriptions")
	}
	return subs, nil
}
