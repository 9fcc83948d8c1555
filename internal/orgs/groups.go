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

// Groups manages named member collections and their app-grant sets.
// Group grants and direct grants compose as a plain union; there are
// no deny grants.
type Groups struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewGroups(db *gorm.DB, log zerolog.Logger) *Groups {
	return &Groups{db: db, log: log}
}

// GroupInfo is the list view of a group.
type GroupInfo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MemberCount int       `json:"member_count"`
	AppAccess   []string  `json:"app_access"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupMemberInfo is one member inside a group detail.
type GroupMemberInfo struct {
	ID      int64       `json:"id"`
	Role    models.Role `json:"role"`
	User    models.User `json:"user"`
	AddedAt time.Time   `json:"added_at"`
}

// GroupDetail is the full view of a group.
type GroupDetail struct {
	GroupInfo
	Members []GroupMemberInfo `json:"members"`
}

// List returns the organization's groups ordered by name. EXTERNAL
// members cannot see groups.
func (s *Groups) List(ctx context.Context, actorID, orgID int64) ([]GroupInfo, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleMember); err != nil {
		return nil, err
	}

	var groups []models.Group
	err := db.Preload("Members").Preload("AppAccess").
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading groups")
	}

	out := make([]GroupInfo, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupInfo(g))
	}
	return out, nil
}

// Get returns a group with its member roster.
func (s *Groups) Get(ctx context.Context, actorID, orgID, groupID int64) (*GroupDetail, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleMember); err != nil {
		return nil, err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return nil, err
	}

	var full models.Group
	err = db.Preload("Members.Member.User").Preload("AppAccess").First(&full, group.ID).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading group")
	}

	detail := GroupDetail{GroupInfo: groupInfo(full), Members: []GroupMemberInfo{}}
	for _, gm := range full.Members {
		if gm.Member == nil {
			continue
		}
		info := GroupMemberInfo{ID: gm.Member.ID, Role: gm.Member.Role, AddedAt: gm.CreatedAt}
		if gm.Member.User != nil {
			info.User = *gm.Member.User
		}
		detail.Members = append(detail.Members, info)
	}
	return &detail, nil
}

// Create adds a group. Names are unique per organization.
func (s *Groups) Create(ctx context.Context, actorID, orgID int64, name, description string) (*GroupInfo, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("group name is required")
	}

	if err := s.checkNameFree(db, orgID, name, 0); err != nil {
		return nil, err
	}

	group := models.Group{OrgID: orgID, Name: name, Description: strings.TrimSpace(description)}
	if err := db.Create(&group).Error; err != nil {
		return nil, apperr.Wrap(err, "creating group")
	}

	info := groupInfo(group)
	return &info, nil
}

// GroupUpdate carries the optional fields of a group update.
type GroupUpdate struct {
	Name        *string
	Description *string
}

// Update renames a group or changes its description.
func (s *Groups) Update(ctx context.Context, actorID, orgID, groupID int64, in GroupUpdate) (*GroupInfo, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("group name cannot be empty")
		}
		if err := s.checkNameFree(db, orgID, name, group.ID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if len(updates) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}

	if err := db.Model(&models.Group{}).Where("id = ?", group.ID).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "updating group")
	}

	var full models.Group
	if err := db.Preload("Members").Preload("AppAccess").First(&full, group.ID).Error; err != nil {
		return nil, apperr.Wrap(err, "reloading group")
	}
	info := groupInfo(full)
	return &info, nil
}

// Delete removes a group with its members and grants. Rejected when
// it would leave an EXTERNAL member with no grants at all.
func (s *Groups) Delete(ctx context.Context, actorID, orgID, groupID int64) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := checkExternalGrants(tx, group.ID, nil); err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupAppAccess{}).Error; err != nil {
			return apperr.Wrap(err, "deleting group app access")
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return apperr.Wrap(err, "deleting group members")
		}
		if err := tx.Delete(&models.Group{}, group.ID).Error; err != nil {
			return apperr.Wrap(err, "deleting group")
		}
		return nil
	})
}

// AddMember puts an org member into a group.
func (s *Groups) AddMember(ctx context.Context, actorID, orgID, groupID, memberID int64) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return err
	}
	if _, err := memberInOrg(db, orgID, memberID); err != nil {
		return err
	}

	var existing int64
	err = db.Model(&models.GroupMember{}).
		Where("group_id = ? AND member_id = ?", group.ID, memberID).
		Count(&existing).Error
	if err != nil {
		return apperr.Wrap(err, "checking group membership")
	}
	if existing > 0 {
		return apperr.Invariant("member is already in this group")
	}

	row := models.GroupMember{GroupID: group.ID, MemberID: memberID}
	if err := db.Create(&row).Error; err != nil {
		return apperr.Wrap(err, "adding group member")
	}
	return nil
}

// RemoveMember takes an org member out of a group. Rejected when the
// member is EXTERNAL and this group carries their last grant.
func (s *Groups) RemoveMember(ctx context.Context, actorID, orgID, groupID, memberID int64) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return err
	}
	member, err := memberInOrg(db, orgID, memberID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var row models.GroupMember
		err := tx.Where("group_id = ? AND member_id = ?", group.ID, memberID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("member is not in this group")
		}
		if err != nil {
			return apperr.Wrap(err, "loading group membership")
		}

		if member.Role == models.RoleExternal {
			total, err := grantCountExcludingGroup(tx, member.ID, group.ID)
			if err != nil {
				return err
			}
			if total == 0 {
				return apperr.Invariant("removal would leave an external member without app access")
			}
		}

		if err := tx.Delete(&models.GroupMember{}, row.ID).Error; err != nil {
			return apperr.Wrap(err, "removing group member")
		}
		return nil
	})
}

// GetAppAccess returns the group's grant slugs.
func (s *Groups) GetAppAccess(ctx context.Context, actorID, orgID, groupID int64) ([]string, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleMember); err != nil {
		return nil, err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return nil, err
	}

	var rows []models.GroupAppAccess
	if err := db.Where("group_id = ?", group.ID).Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, "loading group app access")
	}
	slugs := make([]string, 0, len(rows))
	for _, r := range rows {
		slugs = append(slugs, r.AppSlug)
	}
	return slugs, nil
}

// SetAppAccess replaces the group's grants (delete-then-insert). An
// empty list is allowed unless it would leave an EXTERNAL member of
// the group with no grants from anywhere.
func (s *Groups) SetAppAccess(ctx context.Context, actorID, orgID, groupID int64, slugs []string) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	group, err := groupInOrg(db, orgID, groupID)
	if err != nil {
		return err
	}
	if bad := apps.InvalidSlugs(slugs); len(bad) > 0 {
		return apperr.Invalid("unknown app slugs: " + strings.Join(bad, ", "))
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := checkExternalGrants(tx, group.ID, slugs); err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupAppAccess{}).Error; err != nil {
			return apperr.Wrap(err, "clearing group app access")
		}
		for _, slug := range slugs {
			row := models.GroupAppAccess{GroupID: group.ID, AppSlug: slug}
			if err := tx.Create(&row).Error; err != nil {
				return apperr.Wrap(err, "inserting group app access")
			}
		}
		return nil
	})
}

func (s *Groups) checkNameFree(db *gorm.DB, orgID int64, name string, selfID int64) error {
	var existing models.Group
	err := db.Where("org_id = ? AND name = ?", orgID, name).First(&existing).Error
	if err == nil && existing.ID != selfID {
		return apperr.Invariant("a group with this name already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(err, "checking group name")
	}
	return nil
}

func groupInOrg(db *gorm.DB, orgID, groupID int64) (*models.Group, error) {
	var g models.Group
	err := db.First(&g, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && g.OrgID != orgID) {
		return nil, apperr.NotFoundf("group not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "loading group")
	}
	return &g, nil
}

func groupInfo(g models.Group) GroupInfo {
	info := GroupInfo{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		MemberCount: len(g.Members),
		AppAccess:   []string{},
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	for _, a := range g.AppAccess {
		info.AppAccess = append(info.AppAccess, a.AppSlug)
	}
	return info
}

// grantCountExcludingGroup counts a member's grants from direct rows
// and from groups other than excludeGroupID.
func grantCountExcludingGroup(tx *gorm.DB, memberID, excludeGroupID int64) (int64, error) {
	var direct int64
	err := tx.Model(&models.MemberAppAccess{}).Where("member_id = ?", memberID).Count(&direct).Error
	if err != nil {
		return 0, apperr.Wrap(err, "counting direct grants")
	}

	var viaGroups int64
	err = tx.Model(&models.GroupAppAccess{}).
		Joins("JOIN group_members ON group_members.group_id = group_app_accesses.group_id").
		Where("group_members.member_id = ? AND group_app_accesses.group_id <> ?", memberID, excludeGroupID).
		Count(&viaGroups).Error
	if err != nil {
		return 0, apperr.Wrap(err, "counting group grants")
	}
	return direct + viaGroups, nil
}

// checkExternalGrants verifies that every EXTERNAL member of groupID
// would still hold at least one grant if the group's grant set were
// replaced with replacement (nil for "group going away").
func checkExternalGrants(tx *gorm.DB, groupID int64, replacement []string) error {
	var externals []models.OrgMember
	err := tx.Model(&models.OrgMember{}).
		Joins("JOIN group_members ON group_members.member_id = org_members.id").
		Where("group_members.group_id = ? AND org_members.role = ?", groupID, models.RoleExternal).
		Find(&externals).Error
	if err != nil {
		return apperr.Wrap(err, "loading external group members")
	}
	if len(externals) == 0 || len(replacement) > 0 {
		return nil
	}

	for _, m := range externals {
		total, err := grantCountExcludingGroup(tx, m.ID, groupID)
		if err != nil {
			return err
		}
		if total == 0 {
			return apperr.Invariant("change would leave an external member without app access")
		}
	}
	return nil
}
