// Package orgs implements the organization mutation protocol: role
// transitions, membership removal, entity default management, groups,
// and invitations. Every multi-step mutation runs inside a single
// transaction so partially-applied states are impossible.
package orgs

import (
	"errors"

	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

// membershipOf returns the (user, org) membership, or nil when none
// exists. Store failures come back wrapped as Internal.
func membershipOf(db *gorm.DB, userID, orgID int64) (*models.OrgMember, error) {
	var m models.OrgMember
	err := db.Where("user_id = ? AND org_id = ?", userID, orgID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "loading membership")
	}
	return &m, nil
}

// requireRole loads the actor's membership in org and checks it holds
// at least min. Non-members are Forbidden, not NotFound: the caller
// named an org they can see exists but may not act on.
func requireRole(db *gorm.DB, userID, orgID int64, min models.Role) (*models.OrgMember, error) {
	m, err := membershipOf(db, userID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Forbid("not a member of this organization")
	}
	if m.Role == models.RoleExternal && min.AtLeast(models.RoleMember) {
		return nil, apperr.Forbid("external users cannot access organization settings")
	}
	if !m.Role.AtLeast(min) {
		return nil, apperr.Forbid("insufficient permissions")
	}
	return m, nil
}

// memberInOrg loads a member row by id and verifies it belongs to org.
// Cross-tenant references are NotFound, never Forbidden.
func memberInOrg(db *gorm.DB, orgID, memberID int64) (*models.OrgMember, error) {
	var m models.OrgMember
	err := db.First(&m, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && m.OrgID != orgID) {
		return nil, apperr.NotFoundf("member not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "loading member")
	}
	return &m, nil
}
