package orgs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

func TestInvitationCreate(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	inv, err := svc.Create(ctx, f.bob.ID, f.org.ID, "New@Example.Test", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "new@example.test", inv.Email)
	assert.Equal(t, models.RoleMember, inv.Role)
	assert.WithinDuration(t, time.Now().Add(invitationTTL), inv.ExpiresAt, time.Minute)
}

func TestInvitationCreateRejections(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	t.Run("existing member", func(t *testing.T) {
		_, err := svc.Create(ctx, f.bob.ID, f.org.ID, "carol@acme.test", models.RoleMember, nil)
		assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
	})

	t.Run("duplicate pending", func(t *testing.T) {
		_, err := svc.Create(ctx, f.bob.ID, f.org.ID, "dup@example.test", models.RoleMember, nil)
		require.NoError(t, err)
		_, err = svc.Create(ctx, f.bob.ID, f.org.ID, "dup@example.test", models.RoleAdmin, nil)
		assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
	})

	t.Run("owner role not invitable", func(t *testing.T) {
		_, err := svc.Create(ctx, f.bob.ID, f.org.ID, "boss@example.test", models.RoleOwner, nil)
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("external needs slugs", func(t *testing.T) {
		_, err := svc.Create(ctx, f.bob.ID, f.org.ID, "ext@example.test", models.RoleExternal, nil)
		assert.True(t, apperr.IsKind(err, apperr.Validation))

		_, err = svc.Create(ctx, f.bob.ID, f.org.ID, "ext@example.test", models.RoleExternal, []string{"bogus"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("member cannot invite", func(t *testing.T) {
		_, err := svc.Create(ctx, f.carol.ID, f.org.ID, "x@example.test", models.RoleMember, nil)
		assert.True(t, apperr.IsKind(err, apperr.Forbidden))
	})
}

func TestInvitationExpiredReplaced(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	expired := models.Invitation{
		OrgID:     f.org.ID,
		Email:     "late@example.test",
		Role:      models.RoleMember,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.db.Create(&expired).Error)

	inv, err := svc.Create(ctx, f.bob.ID, f.org.ID, "late@example.test", models.RoleAdmin, nil)
	require.NoError(t, err)
	assert.NotEqual(t, expired.ID, inv.ID)
	assert.Equal(t, models.RoleAdmin, inv.Role)

	var n int64
	require.NoError(t, f.db.Model(&models.Invitation{}).
		Where("org_id = ? AND email = ?", f.org.ID, "late@example.test").
		Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestInvitationListExcludesExpired(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, f.bob.ID, f.org.ID, "fresh@example.test", models.RoleMember, nil)
	require.NoError(t, err)

	expired := models.Invitation{
		OrgID:     f.org.ID,
		Email:     "old@example.test",
		Role:      models.RoleMember,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.db.Create(&expired).Error)

	out, err := svc.List(ctx, f.bob.ID, f.org.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "fresh@example.test", out[0].Email)
}

func TestInvitationAccept(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	invitee := mkUser(t, f.db, "grace@example.test", "Grace")

	inv, err := svc.Create(ctx, f.bob.ID, f.org.ID, "Grace@Example.Test", models.RoleExternal, []string{"nota", "contacts"})
	require.NoError(t, err)

	member, err := svc.Accept(ctx, invitee.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleExternal, member.Role)
	assert.Equal(t, []string{"contacts", "nota"}, directGrants(t, f.db, member.ID))

	// The invitation is consumed.
	_, err = svc.Accept(ctx, invitee.ID, inv.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestInvitationAcceptWrongEmail(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	outsider := mkUser(t, f.db, "mallory@example.test", "Mallory")
	inv, err := svc.Create(ctx, f.bob.ID, f.org.ID, "intended@example.test", models.RoleMember, nil)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, outsider.ID, inv.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestInvitationAcceptExpired(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	invitee := mkUser(t, f.db, "harry@example.test", "Harry")
	expired := models.Invitation{
		OrgID:     f.org.ID,
		Email:     "harry@example.test",
		Role:      models.RoleMember,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.db.Create(&expired).Error)

	_, err := svc.Accept(ctx, invitee.ID, expired.ID)
	assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
}

func TestInvitationWithdraw(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	inv, err := svc.Create(ctx, f.bob.ID, f.org.ID, "going@example.test", models.RoleMember, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(ctx, f.bob.ID, f.org.ID, inv.ID))

	err = svc.Withdraw(ctx, f.bob.ID, f.org.ID, inv.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestInvitationWithdrawCrossTenant(t *testing.T) {
	f := newFixture(t)
	svc := NewInvitations(f.db, testLogger())
	ctx := context.Background()

	other := models.Organization{Name: "Other", Slug: "other", Type: models.OrgBusiness}
	require.NoError(t, f.db.Create(&other).Error)
	foreign := models.Invitation{
		OrgID:     other.ID,
		Email:     "foreign@example.test",
		Role:      models.RoleMember,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, f.db.Create(&foreign).Error)

	err := svc.Withdraw(ctx, f.bob.ID, f.org.ID, foreign.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestInvitationRoundTripAppSlugs(t *testing.T) {
	inv := models.Invitation{}
	inv.SetAppSlugList([]string{"nota", "contacts"})
	assert.Equal(t, []string{"nota", "contacts"}, inv.AppSlugList())

	inv.SetAppSlugList(nil)
	assert.Nil(t, inv.AppSlugList())
}
