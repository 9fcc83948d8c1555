package orgs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/apps"
	"veloxhub/internal/models"
)

// invitationTTL is how long an invitation stays acceptable.
const invitationTTL = 7 * 24 * time.Hour

// Invitations runs the email-keyed invitation workflow. At most one
// pending invitation per (org, email); expired rows are replaced on
// re-invite, not resurrected.
type Invitations struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewInvitations(db *gorm.DB, log zerolog.Logger) *Invitations {
	return &Invitations{db: db, log: log}
}

// InviteInfo is the caller-facing view of one pending invitation.
type InviteInfo struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	AppSlugs  []string    `json:"app_slugs"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// List returns the organization's pending invitations, newest first.
// Expired rows are filtered out, not deleted.
func (s *Invitations) List(ctx context.Context, actorID, orgID int64) ([]InviteInfo, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	var invites []models.Invitation
	err := db.Where("org_id = ? AND expires_at > ?", orgID, time.Now()).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading invitations")
	}

	out := make([]InviteInfo, 0, len(invites))
	for _, inv := range invites {
		out = append(out, inviteInfo(inv))
	}
	return out, nil
}

// Create issues an invitation. The email must not belong to a current
// member and must not already hold a pending invitation; an expired
// row for the same email is deleted and replaced.
func (s *Invitations) Create(ctx context.Context, actorID, orgID int64, email string, role models.Role, appSlugs []string) (*InviteInfo, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Invalid("a valid email is required")
	}

	if role == "" {
		role = models.RoleMember
	}
	if !role.Assignable() {
		return nil, apperr.Invalid("invalid role")
	}
	if role == models.RoleExternal {
		if len(appSlugs) == 0 {
			return nil, apperr.Invalid("EXTERNAL role requires at least one app access")
		}
		if bad := apps.InvalidSlugs(appSlugs); len(bad) > 0 {
			return nil, apperr.Invalid("unknown app slugs: " + strings.Join(bad, ", "))
		}
	} else {
		appSlugs = nil
	}

	var existingMember int64
	err := db.Model(&models.OrgMember{}).
		Joins("JOIN users ON users.id = org_members.user_id").
		Where("org_members.org_id = ? AND LOWER(users.email) = ?", orgID, email).
		Count(&existingMember).Error
	if err != nil {
		return nil, apperr.Wrap(err, "checking membership")
	}
	if existingMember > 0 {
		return nil, apperr.Invariant("user is already a member")
	}

	var invite models.Invitation
	err = db.Transaction(func(tx *gorm.DB) error {
		var prior models.Invitation
		err := tx.Where("org_id = ? AND email = ?", orgID, email).First(&prior).Error
		if err == nil {
			if prior.Pending(time.Now()) {
				return apperr.Invariant("invitation already pending")
			}
			if err := tx.Delete(&models.Invitation{}, prior.ID).Error; err != nil {
				return apperr.Wrap(err, "deleting expired invitation")
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(err, "checking prior invitation")
		}

		invite = models.Invitation{
			OrgID:     orgID,
			Email:     email,
			Role:      role,
			ExpiresAt: time.Now().Add(invitationTTL),
		}
		invite.SetAppSlugList(appSlugs)
		if err := tx.Create(&invite).Error; err != nil {
			return apperr.Wrap(err, "creating invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("org_id", orgID).
		Str("email", email).
		Str("role", string(role)).
		Msg("invitation created")

	info := inviteInfo(invite)
	return &info, nil
}

// Withdraw deletes an invitation before it is accepted.
func (s *Invitations) Withdraw(ctx context.Context, actorID, orgID, inviteID int64) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	var invite models.Invitation
	err := db.First(&invite, inviteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && invite.OrgID != orgID) {
		return apperr.NotFoundf("invitation not found")
	}
	if err != nil {
		return apperr.Wrap(err, "loading invitation")
	}

	if err := db.Delete(&models.Invitation{}, invite.ID).Error; err != nil {
		return apperr.Wrap(err, "deleting invitation")
	}
	return nil
}

// PendingFor returns the caller's own unexpired invitations across all
// organizations, matched by email.
func (s *Invitations) PendingFor(ctx context.Context, userID int64) ([]models.Invitation, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, apperr.Wrap(err, "loading user")
	}

	var invites []models.Invitation
	err := db.Preload("Org").
		Where("LOWER(email) = ? AND expires_at > ?", strings.ToLower(user.Email), time.Now()).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading invitations")
	}
	return invites, nil
}

// Accept turns an invitation into a membership. The caller's email
// must match the invitation's; membership and any EXTERNAL grants are
// created and the invitation deleted in one transaction.
func (s *Invitations) Accept(ctx context.Context, userID, inviteID int64) (*models.OrgMember, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthed("user not found")
		}
		return nil, apperr.Wrap(err, "loading user")
	}

	var invite models.Invitation
	err := db.First(&invite, inviteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("invitation not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "loading invitation")
	}
	if !strings.EqualFold(invite.Email, user.Email) {
		return nil, apperr.NotFoundf("invitation not found")
	}
	if !invite.Pending(time.Now()) {
		return nil, apperr.Invariant("invitation has expired")
	}

	existing, err := membershipOf(db, userID, invite.OrgID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Invariant("user is already a member")
	}

	var member models.OrgMember
	err = db.Transaction(func(tx *gorm.DB) error {
		member = models.OrgMember{UserID: userID, OrgID: invite.OrgID, Role: invite.Role}
		if err := tx.Create(&member).Error; err != nil {
			return apperr.Wrap(err, "creating membership")
		}
		if invite.Role == models.RoleExternal {
			if err := insertAppAccess(tx, member.ID, invite.AppSlugList()); err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Invitation{}, invite.ID).Error; err != nil {
			return apperr.Wrap(err, "deleting invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("org_id", invite.OrgID).
		Int64("user_id", userID).
		Str("role", string(invite.Role)).
		Msg("invitation accepted")

	return &member, nil
}

func inviteInfo(inv models.Invitation) InviteInfo {
	return InviteInfo{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      inv.Role,
		AppSlugs:  inv.AppSlugList(),
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	}
}
