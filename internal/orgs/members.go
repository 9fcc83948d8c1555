package orgs

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/apps"
	"veloxhub/internal/models"
)

// Members validates and applies role transitions and membership
// removals. The role write and any grant rewrite always land in the
// same transaction.
type Members struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewMembers(db *gorm.DB, log zerolog.Logger) *Members {
	return &Members{db: db, log: log}
}

// GroupRef names a group a member belongs to.
type GroupRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Info is the caller-facing view of one member.
type Info struct {
	ID        int64       `json:"id"`
	Role      models.Role `json:"role"`
	User      models.User `json:"user"`
	AppAccess []string    `json:"app_access"`
	Groups    []GroupRef  `json:"groups"`
	CreatedAt time.Time   `json:"created_at"`
}

// List returns the members of org ordered by role (OWNER first) then
// join date. EXTERNAL members may not view the member list.
func (s *Members) List(ctx context.Context, actorID, orgID int64) ([]Info, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleMember); err != nil {
		return nil, err
	}

	var members []models.OrgMember
	err := db.
		Preload("User").
		Preload("AppAccess").
		Preload("GroupMemberships.Group").
		Where("org_id = ?", orgID).
		Find(&members).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading members")
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Role.Rank() != members[j].Role.Rank() {
			return members[i].Role.Rank() > members[j].Role.Rank()
		}
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	out := make([]Info, 0, len(members))
	for _, m := range members {
		info := Info{ID: m.ID, Role: m.Role, AppAccess: []string{}, Groups: []GroupRef{}, CreatedAt: m.CreatedAt}
		if m.User != nil {
			info.User = *m.User
		}
		for _, a := range m.AppAccess {
			info.AppAccess = append(info.AppAccess, a.AppSlug)
		}
		for _, gm := range m.GroupMemberships {
			if gm.Group != nil {
				info.Groups = append(info.Groups, GroupRef{ID: gm.Group.ID, Name: gm.Group.Name})
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// ChangeRole moves a member to a new role. Preconditions, first
// failure wins: actor is OWNER; target exists in org; target is not
// an OWNER; target is not the actor; an EXTERNAL target role carries
// at least one app slug. Entering EXTERNAL replaces the member's
// grants with the supplied list; leaving EXTERNAL deletes them. Role
// and grants commit together or not at all.
func (s *Members) ChangeRole(ctx context.Context, actorID, orgID, memberID int64, role models.Role, appSlugs []string) (*models.OrgMember, error) {
	if !role.Assignable() {
		return nil, apperr.Invalid("invalid role")
	}

	db := s.db.WithContext(ctx)

	actor, err := membershipOf(db, actorID, orgID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != models.RoleOwner {
		return nil, apperr.Forbid("only owners can change member roles")
	}

	target, err := memberInOrg(db, orgID, memberID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleOwner {
		return nil, apperr.Invariant("cannot change the owner's role")
	}
	if target.UserID == actorID {
		return nil, apperr.Invalid("cannot change your own role")
	}
	if role == models.RoleExternal {
		if len(appSlugs) == 0 {
			return nil, apperr.Invalid("EXTERNAL role requires at least one app access")
		}
		if bad := apps.InvalidSlugs(appSlugs); len(bad) > 0 {
			return nil, apperr.Invalid("unknown app slugs: " + strings.Join(bad, ", "))
		}
	}

	wasExternal := target.Role == models.RoleExternal
	becomingExternal := role == models.RoleExternal

	err = db.Transaction(func(tx *gorm.DB) error {
		if wasExternal || becomingExternal {
			if err := tx.Where("member_id = ?", memberID).Delete(&models.MemberAppAccess{}).Error; err != nil {
				return apperr.Wrap(err, "clearing app access")
			}
		}
		if becomingExternal {
			if err := insertAppAccess(tx, memberID, appSlugs); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.OrgMember{}).Where("id = ?", memberID).Update("role", role).Error; err != nil {
			return apperr.Wrap(err, "updating role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.OrgMember
	if err := db.Preload("User").Preload("AppAccess").First(&updated, memberID).Error; err != nil {
		return nil, apperr.Wrap(err, "reloading member")
	}
	return &updated, nil
}

// Remove deletes a membership. OWNER or ADMIN may remove; an ADMIN
// may not remove another ADMIN; the OWNER is never removable.
func (s *Members) Remove(ctx context.Context, actorID, orgID, memberID int64) error {
	db := s.db.WithContext(ctx)

	actor, err := requireRole(db, actorID, orgID, models.RoleAdmin)
	if err != nil {
		return err
	}

	target, err := memberInOrg(db, orgID, memberID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return apperr.Invariant("cannot remove the organization owner")
	}
	if actor.Role == models.RoleAdmin && target.Role == models.RoleAdmin {
		return apperr.Forbid("admins cannot remove other admins")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", memberID).Delete(&models.MemberAppAccess{}).Error; err != nil {
			return apperr.Wrap(err, "deleting app access")
		}
		if err := tx.Where("member_id = ?", memberID).Delete(&models.GroupMember{}).Error; err != nil {
			return apperr.Wrap(err, "deleting group memberships")
		}
		if err := tx.Delete(&models.OrgMember{}, memberID).Error; err != nil {
			return apperr.Wrap(err, "deleting member")
		}
		return nil
	})
}

// GetAppAccess returns a member's direct grant slugs. ADMIN or above.
func (s *Members) GetAppAccess(ctx context.Context, actorID, orgID, memberID int64) ([]string, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := memberInOrg(db, orgID, memberID); err != nil {
		return nil, err
	}

	var rows []models.MemberAppAccess
	if err := db.Where("member_id = ?", memberID).Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, "loading app access")
	}
	slugs := make([]string, 0, len(rows))
	for _, r := range rows {
		slugs = append(slugs, r.AppSlug)
	}
	return slugs, nil
}

// SetAppAccess replaces an EXTERNAL member's direct grants with slugs
// (delete-then-insert, never a merge). ADMIN or above.
func (s *Members) SetAppAccess(ctx context.Context, actorID, orgID, memberID int64, slugs []string) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	target, err := memberInOrg(db, orgID, memberID)
	if err != nil {
		return err
	}
	if target.Role != models.RoleExternal {
		return apperr.Invalid("app access can only be managed for EXTERNAL members")
	}
	if len(slugs) == 0 {
		return apperr.Invalid("at least one app access is required")
	}
	if bad := apps.InvalidSlugs(slugs); len(bad) > 0 {
		return apperr.Invalid("unknown app slugs: " + strings.Join(bad, ", "))
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", memberID).Delete(&models.MemberAppAccess{}).Error; err != nil {
			return apperr.Wrap(err, "clearing app access")
		}
		return insertAppAccess(tx, memberID, slugs)
	})
}

func insertAppAccess(tx *gorm.DB, memberID int64, slugs []string) error {
	for _, slug := range slugs {
		row := models.MemberAppAccess{MemberID: memberID, AppSlug: slug}
		if err := tx.Create(&row).Error; err != nil {
			return apperr.Wrap(err, "inserting app access")
		}
	}
	return nil
}
