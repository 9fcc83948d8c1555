package seed

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"veloxhub/internal/models"
)

// FirstSetup loads a demo workspace: one business organization with an
// owner, an admin, a member, an external contractor, a group, entities,
// and an active subscription. Idempotent via FirstOrCreate.
func FirstSetup(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	ensureUser := func(email, name string) (*models.User, error) {
		u := models.User{Email: email, Name: name, AuthProvider: "local", PasswordHash: string(hash)}
		if err := db.Where("email = ?", email).FirstOrCreate(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}

	alice, err := ensureUser("alice@acme.test", "Alice")
	if err != nil {
		return err
	}
	bob, err := ensureUser("bob@acme.test", "Bob")
	if err != nil {
		return err
	}
	carol, err := ensureUser("carol@acme.test", "Carol")
	if err != nil {
		return err
	}
	dave, err := ensureUser("dave@contractor.test", "Dave")
	if err != nil {
		return err
	}

	org := models.Organization{Name: "Acme", Slug: "acme", Type: models.OrgBusiness}
	if err := db.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
		return err
	}

	ensureMember := func(userID int64, role models.Role) (*models.OrgMember, error) {
		m := models.OrgMember{UserID: userID, OrgID: org.ID, Role: role}
		if err := db.Where("user_id = ? AND org_id = ?", userID, org.ID).FirstOrCreate(&m).Error; err != nil {
			return nil, err
		}
		return &m, nil
	}

	if _, err := ensureMember(alice.ID, models.RoleOwner); err != nil {
		return err
	}
	if _, err := ensureMember(bob.ID, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := ensureMember(carol.ID, models.RoleMember); err != nil {
		return err
	}
	ext, err := ensureMember(dave.ID, models.RoleExternal)
	if err != nil {
		return err
	}

	// External members always carry at least one grant.
	access := models.MemberAppAccess{MemberID: ext.ID, AppSlug: "nota"}
	if err := db.Where("member_id = ? AND app_slug = ?", ext.ID, access.AppSlug).FirstOrCreate(&access).Error; err != nil {
		return err
	}

	hq := models.Entity{OrgID: org.ID, Name: "Headquarters", Slug: "headquarters", IsDefault: true}
	if err := db.Where("org_id = ? AND slug = ?", org.ID, hq.Slug).FirstOrCreate(&hq).Error; err != nil {
		return err
	}
	branch := models.Entity{OrgID: org.ID, Name: "West Branch", Slug: "west-branch"}
	if err := db.Where("org_id = ? AND slug = ?", org.ID, branch.Slug).FirstOrCreate(&branch).Error; err != nil {
		return err
	}

	group := models.Group{OrgID: org.ID, Name: "Engineering", Description: "Product engineering"}
	if err := db.Where("org_id = ? AND name = ?", org.ID, group.Name).FirstOrCreate(&group).Error; err != nil {
		return err
	}
	groupApp := models.GroupAppAccess{GroupID: group.ID, AppSlug: "contacts"}
	if err := db.Where("group_id = ? AND app_slug = ?", group.ID, groupApp.AppSlug).FirstOrCreate(&groupApp).Error; err != nil {
		return err
	}

	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	sub := models.Subscription{OrgID: org.ID, AppSlug: "contacts", Status: models.SubActive, CurrentPeriodEnd: &periodEnd}
	if err := db.Where("org_id = ? AND app_slug = ?", org.ID, sub.AppSlug).FirstOrCreate(&sub).Error; err != nil {
		return err
	}

	return nil
}
