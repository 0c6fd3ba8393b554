package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"mcpgate/internal/platform/models"
)

type stubRoles map[string]models.Role

func (s stubRoles) GetRole(_ context.Context, userID, orgID string) (models.Role, bool, error) {
	if userID == "usr_broken" {
		return "", false, errors.New("database is locked")
	}
	role, ok := s[userID+"/"+orgID]
	return role, ok, nil
}

func identityFor(userID string) *Identity {
	id := &Identity{Organization: &models.Organization{ID: "org_1"}}
	if userID != "" {
		id.User = &models.User{ID: userID}
	}
	return id
}

func TestAuthorize(t *testing.T) {
	a := NewAuthorizer(stubRoles{
		"usr_owner/org_1":  models.RoleOwner,
		"usr_admin/org_1":  models.RoleAdmin,
		"usr_member/org_1": models.RoleMember,
	})
	ctx := context.Background()

	tests := []struct {
		user    string
		level   Level
		wantErr error
	}{
		{"usr_owner", LevelAdmin, nil},
		{"usr_admin", LevelAdmin, nil},
		{"usr_member", LevelAdmin, ErrAdminRequired},
		{"usr_owner", LevelMember, nil},
		{"usr_member", LevelMember, nil},
		{"usr_outsider", LevelMember, ErrMembershipRequired},
		{"usr_outsider", LevelAdmin, ErrAdminRequired},
		{"", LevelMember, ErrMembershipRequired},
	}
	for _, tt := range tests {
		err := a.Authorize(ctx, identityFor(tt.user), tt.level)
		if tt.wantErr == nil {
			assert.NoError(t, err, "user %q level %d", tt.user, tt.level)
			continue
		}
		assert.ErrorIs(t, err, tt.wantErr, "user %q level %d", tt.user, tt.level)
		assert.True(t, IsForbidden(err))
	}

	err := a.Authorize(ctx, identityFor("usr_broken"), LevelMember)
	assert.Error(t, err)
	assert.False(t, IsForbidden(err))

	assert.ErrorIs(t, a.Authorize(ctx, nil, LevelAdmin), ErrAdminRequired)
}
