package orgs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

func TestChangeRoleOwnerOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, f.bob.ID, f.org.ID, f.member.ID, models.RoleAdmin, nil)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))

	_, err = svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.member.ID, models.RoleAdmin, nil)
	require.NoError(t, err)

	var reloaded models.OrgMember
	require.NoError(t, f.db.First(&reloaded, f.member.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
}

func TestChangeRolePreconditions(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())
	ctx := context.Background()

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.member.ID, "SUPERADMIN", nil)
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("owner is never reassignable", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.owner.ID, models.RoleMember, nil)
		assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
	})

	t.Run("unknown member is NotFound", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, f.alice.ID, f.org.ID, 9999, models.RoleMember, nil)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})

	t.Run("cross-tenant member is NotFound", func(t *testing.T) {
		other := models.Organization{Name: "Other", Slug: "other", Type: models.OrgBusiness}
		require.NoError(t, f.db.Create(&other).Error)
		stranger := mkUser(t, f.db, "eve@other.test", "Eve")
		m := mkMember(t, f.db, stranger.ID, other.ID, models.RoleMember)

		_, err := svc.ChangeRole(ctx, f.alice.ID, f.org.ID, m.ID, models.RoleAdmin, nil)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})

	t.Run("external requires grants", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.member.ID, models.RoleExternal, nil)
		assert.True(t, apperr.IsKind(err, apperr.Validation))

		_, err = svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.member.ID, models.RoleExternal, []string{"bogus"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})
}

func TestChangeRoleGrantSwap(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())
	ctx := context.Background()

	// MEMBER -> EXTERNAL installs the supplied grants.
	_, err := svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.member.ID, models.RoleExternal, []string{"nota", "contacts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts", "nota"}, directGrants(t, f.db, f.member.ID))

	// EXTERNAL -> MEMBER clears them.
	_, err = svc.ChangeRole(ctx, f.alice.ID, f.org.ID, f.member.ID, models.RoleMember, nil)
	require.NoError(t, err)
	assert.Empty(t, directGrants(t, f.db, f.member.ID))
}

func TestChangeOwnRoleRejected(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())

	_, err := svc.ChangeRole(context.Background(), f.alice.ID, f.org.ID, f.owner.ID, models.RoleAdmin, nil)
	// The owner check fires before the self check.
	assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())
	ctx := context.Background()

	t.Run("owner is never removable", func(t *testing.T) {
		err := svc.Remove(ctx, f.bob.ID, f.org.ID, f.owner.ID)
		assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
	})

	t.Run("admin cannot remove admin", func(t *testing.T) {
		second := mkUser(t, f.db, "erin@acme.test", "Erin")
		m := mkMember(t, f.db, second.ID, f.org.ID, models.RoleAdmin)

		err := svc.Remove(ctx, f.bob.ID, f.org.ID, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.Forbidden))

		// The owner can.
		require.NoError(t, svc.Remove(ctx, f.alice.ID, f.org.ID, m.ID))
	})

	t.Run("member cannot remove anyone", func(t *testing.T) {
		err := svc.Remove(ctx, f.carol.ID, f.org.ID, f.external.ID)
		assert.True(t, apperr.IsKind(err, apperr.Forbidden))
	})

	t.Run("removal deletes grants and group memberships", func(t *testing.T) {
		group := models.Group{OrgID: f.org.ID, Name: "Contractors"}
		require.NoError(t, f.db.Create(&group).Error)
		gm := models.GroupMember{GroupID: group.ID, MemberID: f.external.ID}
		require.NoError(t, f.db.Create(&gm).Error)

		require.NoError(t, svc.Remove(ctx, f.bob.ID, f.org.ID, f.external.ID))

		assert.Empty(t, directGrants(t, f.db, f.external.ID))
		var n int64
		require.NoError(t, f.db.Model(&models.GroupMember{}).Where("member_id = ?", f.external.ID).Count(&n).Error)
		assert.Zero(t, n)
	})
}

func TestSetAppAccess(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())
	ctx := context.Background()

	t.Run("only for external members", func(t *testing.T) {
		err := svc.SetAppAccess(ctx, f.bob.ID, f.org.ID, f.member.ID, []string{"nota"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("replaces rather than merges", func(t *testing.T) {
		require.NoError(t, svc.SetAppAccess(ctx, f.bob.ID, f.org.ID, f.external.ID, []string{"contacts", "projects"}))
		assert.Equal(t, []string{"contacts", "projects"}, directGrants(t, f.db, f.external.ID))
	})

	t.Run("empty set rejected", func(t *testing.T) {
		err := svc.SetAppAccess(ctx, f.bob.ID, f.org.ID, f.external.ID, nil)
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("external actor blocked", func(t *testing.T) {
		err := svc.SetAppAccess(ctx, f.dave.ID, f.org.ID, f.external.ID, []string{"nota"})
		assert.True(t, apperr.IsKind(err, apperr.Forbidden))
	})
}

func TestListMembersOrdering(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())

	out, err := svc.List(context.Background(), f.carol.ID, f.org.ID)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, models.RoleOwner, out[0].Role)
	assert.Equal(t, models.RoleAdmin, out[1].Role)
	assert.Equal(t, models.RoleMember, out[2].Role)
	assert.Equal(t, models.RoleExternal, out[3].Role)
}

func TestListMembersExternalBlocked(t *testing.T) {
	f := newFixture(t)
	svc := NewMembers(f.db, testLogger())

	_, err := svc.List(context.Background(), f.dave.ID, f.org.ID)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}
