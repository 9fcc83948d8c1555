// Package entitlement computes which catalog apps a user may open.
// Resolution is read-only and re-reads membership state on every call;
// there is no cached authorization decision anywhere.
package entitlement

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/apps"
	"veloxhub/internal/models"
)

type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Identity is the caller echo included in an authenticated resolution.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

type ResolvedApp struct {
	apps.App
	Locked bool `json:"locked"`
}

type Resolution struct {
	Apps          []ResolvedApp `json:"apps"`
	User          *Identity     `json:"user"`
	Subscriptions []string      `json:"subscriptions"`
}

// Resolve returns the catalog visible to userID. Pass 0 for an
// anonymous caller: the full public catalog with no personal data and
// no subscription state.
//
// Authenticated resolution: a user holding OWNER or ADMIN in any
// organization sees the full catalog; everyone else sees the union of
// their direct grants and their groups' grants across all memberships.
// An app is locked when it is available, not free, and no organization
// the user belongs to holds an active subscription for it. Grant rows
// referencing slugs outside the catalog are ignored.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Resolution, error) {
	if userID == 0 {
		return anonymousResolution(), nil
	}

	db := r.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthed("unknown user")
		}
		return nil, apperr.Wrap(err, "loading user")
	}

	var memberships []models.OrgMember
	err := db.
		Preload("AppAccess").
		Preload("GroupMemberships.Group.AppAccess").
		Where("user_id = ?", userID).
		Find(&memberships).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading memberships")
	}

	fullAccess := false
	accessible := map[string]bool{}
	orgIDs := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrgID)
		if m.Role.AtLeast(models.RoleAdmin) {
			fullAccess = true
			continue
		}
		for _, a := range m.AppAccess {
			accessible[a.AppSlug] = true
		}
		for _, gm := range m.GroupMemberships {
			if gm.Group == nil {
				continue
			}
			for _, a := range gm.Group.AppAccess {
				accessible[a.AppSlug] = true
			}
		}
	}

	subscribed := map[string]bool{}
	if len(orgIDs) > 0 {
		var subs []models.Subscription
		err = db.
			Where("org_id IN ? AND status = ?", orgIDs, models.SubActive).
			Find(&subs).Error
		if err != nil {
			return nil, apperr.Wrap(err, "loading subscriptions")
		}
		for _, s := range subs {
			subscribed[s.AppSlug] = true
		}
	}

	resolved := make([]ResolvedApp, 0, len(apps.Catalog()))
	for _, app := range apps.Catalog() {
		if !fullAccess && !accessible[app.Slug] {
			continue
		}
		locked := app.Status == apps.StatusAvailable && !app.Free && !subscribed[app.Slug]
		resolved = append(resolved, ResolvedApp{App: app, Locked: locked})
	}

	slugs := make([]string, 0, len(subscribed))
	for s := range subscribed {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	return &Resolution{
		Apps: resolved,
		User: &Identity{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Image: user.Image,
		},
		Subscriptions: slugs,
	}, nil
}

func anonymousResolution() *Resolution {
	resolved := make([]ResolvedApp, 0, len(apps.Catalog()))
	for _, app := range apps.Catalog() {
		resolved = append(resolved, ResolvedApp{App: app})
	}
	return &Resolution{Apps: resolved, Subscriptions: []string{}}
}
