package orgs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

// slugPattern: lowercase alphanumerics and hyphens, no leading or
// trailing hyphen.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func validSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// slugify lowercases name, collapses runs of non-alphanumerics into
// single hyphens, and trims the edges. fallback covers names with no
// usable characters at all.
func slugify(name, fallback string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
		} else {
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// uniqueOrgSlug appends an incrementing numeric suffix to base until
// the slug is free. Organization slugs are globally unique.
func uniqueOrgSlug(tx *gorm.DB, base string) (string, error) {
	slug := base
	for counter := 1; ; counter++ {
		var existing models.Organization
		err := tx.Where("slug = ?", slug).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", apperr.Wrap(err, "checking slug uniqueness")
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// uniqueEntitySlug is the per-organization variant for entities.
func uniqueEntitySlug(tx *gorm.DB, orgID int64, base string) (string, error) {
	slug := base
	for counter := 1; ; counter++ {
		var existing models.Entity
		err := tx.Where("org_id = ? AND slug = ?", orgID, slug).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", apperr.Wrap(err, "checking slug uniqueness")
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
