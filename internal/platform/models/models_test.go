package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleOrdering(t *testing.T) {
	owner := &OrganizationMembership{Role: RoleOwner}
	admin := &OrganizationMembership{Role: RoleAdmin}
	member := &OrganizationMembership{Role: RoleMember}

	assert.True(t, owner.Role.IsOwner())
	assert.False(t, admin.Role.IsOwner())
	assert.False(t, member.Role.IsOwner())

	assert.True(t, owner.Role.IsAdmin())
	assert.True(t, admin.Role.IsAdmin())
	assert.False(t, member.Role.IsAdmin())

	for _, m := range []*OrganizationMembership{owner, admin, member} {
		assert.True(t, m.Role.IsMember(), m.Role)
	}

	assert.True(t, owner.CanManageMembers())
	assert.True(t, admin.CanManageAPIKeys())
	assert.False(t, member.CanManageMembers())
	assert.False(t, member.CanManageAPIKeys())
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"owner", "admin", "member"} {
		r, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, s, string(r))
	}

	_, err := ParseRole("invalid_role")
	assert.Error(t, err)
	assert.False(t, Role("invalid_role").IsMember())
}

func TestAPIKeyActive(t *testing.T) {
	now := int64(1_700_000_000)
	past := now - 60
	future := now + 60

	assert.True(t, (&APIKey{}).Active(now), "no expiry")
	assert.True(t, (&APIKey{ExpiresAt: &future}).Active(now))
	assert.False(t, (&APIKey{ExpiresAt: &past}).Active(now))
	assert.False(t, (&APIKey{ExpiresAt: &now}).Active(now), "expiry is exclusive")
	assert.False(t, (&APIKey{RevokedAt: &past}).Active(now))
}
