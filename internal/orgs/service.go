package orgs

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

// Service owns the Organization aggregate: creation, settings,
// deletion, and full account deletion.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Summary is the caller-facing view of one membership.
type Summary struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Type        models.OrgType `json:"type"`
	Role        models.Role    `json:"role"`
	MemberCount int64          `json:"member_count"`
}

// List returns a summary for every organization the user belongs to.
func (s *Service) List(ctx context.Context, userID int64) ([]Summary, error) {
	db := s.db.WithContext(ctx)

	var memberships []models.OrgMember
	if err := db.Preload("Org").Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, apperr.Wrap(err, "loading memberships")
	}

	counts, err := memberCounts(db, orgIDs(memberships))
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(memberships))
	for _, m := range memberships {
		if m.Org == nil {
			continue
		}
		out = append(out, Summary{
			ID:          m.Org.ID,
			Name:        m.Org.Name,
			Slug:        m.Org.Slug,
			Type:        m.Org.Type,
			Role:        m.Role,
			MemberCount: counts[m.OrgID],
		})
	}
	return out, nil
}

// Get returns the summary for one organization. EXTERNAL members are
// barred from organization settings surfaces entirely.
func (s *Service) Get(ctx context.Context, userID, orgID int64) (*Summary, error) {
	db := s.db.WithContext(ctx)

	m, err := requireRole(db, userID, orgID, models.RoleMember)
	if err != nil {
		return nil, err
	}

	var org models.Organization
	if err := db.First(&org, orgID).Error; err != nil {
		return nil, apperr.Wrap(err, "loading organization")
	}

	counts, err := memberCounts(db, []int64{orgID})
	if err != nil {
		return nil, err
	}

	return &Summary{
		ID:          org.ID,
		Name:        org.Name,
		Slug:        org.Slug,
		Type:        org.Type,
		Role:        m.Role,
		MemberCount: counts[orgID],
	}, nil
}

// Create creates an organization with the caller as OWNER. BUSINESS
// organizations get a default entity immediately so the single-default
// invariant holds from the first moment entities exist. A user may
// hold at most one INDIVIDUAL organization.
func (s *Service) Create(ctx context.Context, userID int64, name string, orgType models.OrgType) (*models.Organization, error) {
	var org *models.Organization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		org, err = s.CreateInTx(tx, userID, name, orgType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// CreateInTx runs organization creation on the caller's transaction so
// it can commit atomically with other writes; registration uses it to
// create the user and the personal organization as one unit.
func (s *Service) CreateInTx(tx *gorm.DB, userID int64, name string, orgType models.OrgType) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if orgType == "" {
		orgType = models.OrgBusiness
	}
	if !orgType.Valid() {
		return nil, apperr.Invalid("type must be INDIVIDUAL or BUSINESS")
	}

	if orgType == models.OrgIndividual {
		n, err := individualOrgCount(tx, userID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, apperr.Invariant("user already has a personal organization")
		}
	}

	slug, err := uniqueOrgSlug(tx, slugify(name, "org"))
	if err != nil {
		return nil, err
	}

	org := models.Organization{Name: name, Slug: slug, Type: orgType}
	if err := tx.Create(&org).Error; err != nil {
		return nil, apperr.Wrap(err, "creating organization")
	}

	owner := models.OrgMember{UserID: userID, OrgID: org.ID, Role: models.RoleOwner}
	if err := tx.Create(&owner).Error; err != nil {
		return nil, apperr.Wrap(err, "creating owner membership")
	}

	if orgType == models.OrgBusiness {
		entity := models.Entity{OrgID: org.ID, Name: name, Slug: "default", IsDefault: true}
		if err := tx.Create(&entity).Error; err != nil {
			return nil, apperr.Wrap(err, "creating default entity")
		}
	}
	return &org, nil
}

// UpdateInput carries the optional fields of an organization update.
type UpdateInput struct {
	Name *string
	Slug *string
	Type *models.OrgType
}

// Update changes organization settings. OWNER only.
func (s *Service) Update(ctx context.Context, actorID, orgID int64, in UpdateInput) (*models.Organization, error) {
	db := s.db.WithContext(ctx)

	m, err := membershipOf(db, actorID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Role != models.RoleOwner {
		return nil, apperr.Forbid("only owners can update organization settings")
	}

	updates := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("name cannot be empty")
		}
		updates["name"] = name
	}

	if in.Slug != nil {
		slug := *in.Slug
		if !validSlug(slug) {
			return nil, apperr.Invalid("slug must be lowercase letters, numbers, and hyphens only")
		}
		var existing models.Organization
		err := db.Where("slug = ?", slug).First(&existing).Error
		if err == nil && existing.ID != orgID {
			return nil, apperr.Invariant("slug is already taken")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(err, "checking slug uniqueness")
		}
		updates["slug"] = slug
	}

	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperr.Invalid("type must be INDIVIDUAL or BUSINESS")
		}
		if *in.Type == models.OrgIndividual {
			n, err := individualOrgCount(db, actorID)
			if err != nil {
				return nil, err
			}
			var cur models.Organization
			if err := db.First(&cur, orgID).Error; err != nil {
				return nil, apperr.Wrap(err, "loading organization")
			}
			if cur.Type != models.OrgIndividual && n > 0 {
				return nil, apperr.Invariant("user already has a personal organization")
			}
		}
		updates["type"] = *in.Type
	}

	if len(updates) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}

	if err := db.Model(&models.Organization{}).Where("id = ?", orgID).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "updating organization")
	}

	var org models.Organization
	if err := db.First(&org, orgID).Error; err != nil {
		return nil, apperr.Wrap(err, "reloading organization")
	}
	return &org, nil
}

// Delete removes a BUSINESS organization and everything it owns.
// INDIVIDUAL organizations are only removed through account deletion.
func (s *Service) Delete(ctx context.Context, actorID, orgID int64) error {
	db := s.db.WithContext(ctx)

	m, err := membershipOf(db, actorID, orgID)
	if err != nil {
		return err
	}
	if m == nil || m.Role != models.RoleOwner {
		return apperr.Forbid("only owners can delete organizations")
	}

	var org models.Organization
	if err := db.First(&org, orgID).Error; err != nil {
		return apperr.Wrap(err, "loading organization")
	}
	if org.Type == models.OrgIndividual {
		return apperr.Invariant("cannot delete personal organization; delete your account instead")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return cascadeDeleteOrg(tx, orgID)
	})
}

// DeleteAccount deletes the user, first deleting every organization
// where the user is the only OWNER. Organizations with co-owners keep
// running with the user's membership removed. One transaction.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, password string) error {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("user not found")
	}
	if err != nil {
		return apperr.Wrap(err, "loading user")
	}

	if user.PasswordHash != "" {
		if password == "" {
			return apperr.Invalid("password is required")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return apperr.Invalid("password is incorrect")
		}
	}

	var owned []models.OrgMember
	if err := db.Where("user_id = ? AND role = ?", userID, models.RoleOwner).Find(&owned).Error; err != nil {
		return apperr.Wrap(err, "loading owned organizations")
	}

	var soleOwned []int64
	for _, m := range owned {
		var owners int64
		err := db.Model(&models.OrgMember{}).
			Where("org_id = ? AND role = ?", m.OrgID, models.RoleOwner).
			Count(&owners).Error
		if err != nil {
			return apperr.Wrap(err, "counting owners")
		}
		if owners == 1 {
			soleOwned = append(soleOwned, m.OrgID)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, orgID := range soleOwned {
			if err := cascadeDeleteOrg(tx, orgID); err != nil {
				return err
			}
		}

		// Remaining memberships elsewhere plus their grant rows.
		memberIDs := tx.Model(&models.OrgMember{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("member_id IN (?)", memberIDs).Delete(&models.MemberAppAccess{}).Error; err != nil {
			return apperr.Wrap(err, "deleting app access")
		}
		if err := tx.Where("member_id IN (?)", memberIDs).Delete(&models.GroupMember{}).Error; err != nil {
			return apperr.Wrap(err, "deleting group memberships")
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.OrgMember{}).Error; err != nil {
			return apperr.Wrap(err, "deleting memberships")
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.SSOToken{}).Error; err != nil {
			return apperr.Wrap(err, "deleting sso tokens")
		}
		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return apperr.Wrap(err, "deleting user")
		}
		return nil
	})
}

func individualOrgCount(db *gorm.DB, userID int64) (int64, error) {
	var n int64
	err := db.Model(&models.OrgMember{}).
		Joins("JOIN organizations ON organizations.id = org_members.org_id").
		Where("org_members.user_id = ? AND organizations.type = ?", userID, models.OrgIndividual).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Wrap(err, "counting personal organizations")
	}
	return n, nil
}

// cascadeDeleteOrg removes an organization and all rows it owns:
// groups (with their members and grants), members (with their grants),
// entities, invitations, subscriptions, and audit entries. Callers
// run it inside a transaction.
func cascadeDeleteOrg(tx *gorm.DB, orgID int64) error {
	groupIDs := tx.Model(&models.Group{}).Select("id").Where("org_id = ?", orgID)
	if err := tx.Where("group_id IN (?)", groupIDs).Delete(&models.GroupAppAccess{}).Error; err != nil {
		return apperr.Wrap(err, "deleting group app access")
	}
	if err := tx.Where("group_id IN (?)", groupIDs).Delete(&models.GroupMember{}).Error; err != nil {
		return apperr.Wrap(err, "deleting group members")
	}
	if err := tx.Where("org_id = ?", orgID).Delete(&models.Group{}).Error; err != nil {
		return apperr.Wrap(err, "deleting groups")
	}

	memberIDs := tx.Model(&models.OrgMember{}).Select("id").Where("org_id = ?", orgID)
	if err := tx.Where("member_id IN (?)", memberIDs).Delete(&models.MemberAppAccess{}).Error; err != nil {
		return apperr.Wrap(err, "deleting member app access")
	}
	if err := tx.Where("org_id = ?", orgID).Delete(&models.OrgMember{}).Error; err != nil {
		return apperr.Wrap(err, "deleting members")
	}

	for _, model := range []any{&models.Entity{}, &models.Invitation{}, &models.Subscription{}, &models.AuditLog{}} {
		if err := tx.Where("org_id = ?", orgID).Delete(model).Error; err != nil {
			return apperr.Wrap(err, "deleting organization records")
		}
	}

	if err := tx.Delete(&models.Organization{}, orgID).Error; err != nil {
		return apperr.Wrap(err, "deleting organization")
	}
	return nil
}

func orgIDs(memberships []models.OrgMember) []int64 {
	ids := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.OrgID)
	}
	return ids
}

func memberCounts(db *gorm.DB, ids []int64) (map[int64]int64, error) {
	counts := map[int64]int64{}
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		OrgID int64
		N     int64
	}
	err := db.Model(&models.OrgMember{}).
		Select("org_id, COUNT(*) AS n").
		Where("org_id IN ?", ids).
		Group("org_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "counting members")
	}
	for _, r := range rows {
		counts[r.OrgID] = r.N
	}
	return counts, nil
}
