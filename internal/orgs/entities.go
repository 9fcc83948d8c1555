package orgs

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

// Entities guards the entity aggregate: whenever an organization has
// entities, exactly one is the default, and the last entity cannot be
// deleted.
type Entities struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewEntities(db *gorm.DB, log zerolog.Logger) *Entities {
	return &Entities{db: db, log: log}
}

// List returns the organization's entities, default first then oldest
// first. Non-BUSINESS organizations have none.
func (s *Entities) List(ctx context.Context, userID, orgID int64) ([]models.Entity, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, userID, orgID, models.RoleExternal); err != nil {
		return nil, err
	}

	var org models.Organization
	if err := db.First(&org, orgID).Error; err != nil {
		return nil, apperr.Wrap(err, "loading organization")
	}
	if org.Type != models.OrgBusiness {
		return []models.Entity{}, nil
	}

	var entities []models.Entity
	err := db.Where("org_id = ?", orgID).
		Order("is_default DESC, created_at ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, apperr.Wrap(err, "loading entities")
	}
	return entities, nil
}

// Get returns one entity; cross-tenant references are NotFound.
func (s *Entities) Get(ctx context.Context, userID, orgID, entityID int64) (*models.Entity, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, userID, orgID, models.RoleExternal); err != nil {
		return nil, err
	}
	return entityInOrg(db, orgID, entityID)
}

// Create adds an entity to a BUSINESS organization. The first entity
// is always the default; creating with isDefault set moves the flag
// off every sibling in the same transaction.
func (s *Entities) Create(ctx context.Context, actorID, orgID int64, name string, isDefault bool) (*models.Entity, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	var org models.Organization
	if err := db.First(&org, orgID).Error; err != nil {
		return nil, apperr.Wrap(err, "loading organization")
	}
	if org.Type != models.OrgBusiness {
		return nil, apperr.Invalid("only business organizations can have entities")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}

	var entity models.Entity
	err := db.Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueEntitySlug(tx, orgID, slugify(name, "entity"))
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Entity{}).Where("org_id = ?", orgID).Count(&existing).Error; err != nil {
			return apperr.Wrap(err, "counting entities")
		}
		if existing == 0 {
			isDefault = true
		}
		if isDefault {
			if err := unsetDefaults(tx, orgID); err != nil {
				return err
			}
		}

		entity = models.Entity{OrgID: orgID, Name: name, Slug: slug, IsDefault: isDefault}
		if err := tx.Create(&entity).Error; err != nil {
			return apperr.Wrap(err, "creating entity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// EntityUpdate carries the optional fields of an entity update.
type EntityUpdate struct {
	Name      *string
	Slug      *string
	IsDefault *bool
}

// Update changes an entity. Setting the default moves it off every
// sibling atomically; unsetting the current default directly is
// rejected — the flag only moves by being set elsewhere.
func (s *Entities) Update(ctx context.Context, actorID, orgID, entityID int64, in EntityUpdate) (*models.Entity, error) {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return nil, err
	}

	entity, err := entityInOrg(db, orgID, entityID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("name cannot be empty")
		}
		updates["name"] = name
	}

	if in.Slug != nil && *in.Slug != entity.Slug {
		slug := *in.Slug
		if !validSlug(slug) {
			return nil, apperr.Invalid("slug must be lowercase letters, numbers, and hyphens only")
		}
		var existing models.Entity
		err := db.Where("org_id = ? AND slug = ?", orgID, slug).First(&existing).Error
		if err == nil && existing.ID != entityID {
			return nil, apperr.Invariant("slug is already in use")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(err, "checking slug uniqueness")
		}
		updates["slug"] = slug
	}

	settingDefault := in.IsDefault != nil && *in.IsDefault && !entity.IsDefault
	if in.IsDefault != nil && !*in.IsDefault && entity.IsDefault {
		return nil, apperr.Invariant("cannot unset the default entity; set another entity as default instead")
	}
	if settingDefault {
		updates["is_default"] = true
	}

	if len(updates) == 0 {
		// Re-asserting the current default is a no-op, not an error.
		if in.IsDefault != nil && *in.IsDefault && entity.IsDefault {
			return entity, nil
		}
		return nil, apperr.Invalid("no fields to update")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if settingDefault {
			if err := unsetDefaults(tx, orgID); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Entity{}).Where("id = ?", entityID).Updates(updates).Error; err != nil {
			return apperr.Wrap(err, "updating entity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.Entity
	if err := db.First(&updated, entityID).Error; err != nil {
		return nil, apperr.Wrap(err, "reloading entity")
	}
	return &updated, nil
}

// Delete removes an entity. The sole entity cannot be deleted, and
// deleting the default promotes the oldest remaining sibling before
// the delete commits.
func (s *Entities) Delete(ctx context.Context, actorID, orgID, entityID int64) error {
	db := s.db.WithContext(ctx)

	if _, err := requireRole(db, actorID, orgID, models.RoleAdmin); err != nil {
		return err
	}

	entity, err := entityInOrg(db, orgID, entityID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Entity{}).Where("org_id = ?", orgID).Count(&count).Error; err != nil {
			return apperr.Wrap(err, "counting entities")
		}
		if count == 1 {
			return apperr.Invariant("cannot delete the only entity; organizations must keep at least one")
		}

		if entity.IsDefault {
			var next models.Entity
			err := tx.Where("org_id = ? AND id <> ?", orgID, entityID).
				Order("created_at ASC, id ASC").
				First(&next).Error
			if err != nil {
				return apperr.Wrap(err, "finding next default entity")
			}
			if err := tx.Model(&models.Entity{}).Where("id = ?", next.ID).Update("is_default", true).Error; err != nil {
				return apperr.Wrap(err, "promoting next default entity")
			}
		}

		if err := tx.Delete(&models.Entity{}, entityID).Error; err != nil {
			return apperr.Wrap(err, "deleting entity")
		}
		return nil
	})
}

func entityInOrg(db *gorm.DB, orgID, entityID int64) (*models.Entity, error) {
	var e models.Entity
	err := db.First(&e, entityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && e.OrgID != orgID) {
		return nil, apperr.NotFoundf("entity not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "loading entity")
	}
	return &e, nil
}

func unsetDefaults(tx *gorm.DB, orgID int64) error {
	err := tx.Model(&models.Entity{}).
		Where("org_id = ? AND is_default = ?", orgID, true).
		Update("is_default", false).Error
	if err != nil {
		return apperr.Wrap(err, "unsetting default entities")
	}
	return nil
}
