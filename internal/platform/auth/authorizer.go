package auth

import (
	"context"
	"errors"
	"fmt"

	"mcpgate/internal/platform/models"
)

type Level int

const (
	LevelMember Level = iota
	LevelAdmin
)

var (
	ErrMembershipRequired = errors.New("organization membership required")
	ErrAdminRequired      = errors.New("admin access required")
)

type RoleLookup interface {
	GetRole(ctx context.Context, userID, orgID string) (models.Role, bool, error)
}

type Authorizer struct {
	roles RoleLookup
}

func NewAuthorizer(roles RoleLookup) *Authorizer {
	return &Authorizer{roles: roles}
}

// Authorize checks the identity's membership role in its own organization.
// Keys without an owning user never pass.
func (a *Authorizer) Authorize(ctx context.Context, id *Identity, level Level) error {
	if id == nil || id.User == nil || id.Organization == nil {
		return deny(level)
	}

	role, found, err := a.roles.GetRole(ctx, id.User.ID, id.Organization.ID)
	if err != nil {
		return fmt.Errorf("lookup membership: %w", err)
	}
	if !found || !role.IsMember() {
		return deny(level)
	}

	if level == LevelAdmin && !role.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

func deny(level Level) error {
	if level == LevelAdmin {
		return ErrAdminRequired
	}
	return ErrMembershipRequired
}

// IsForbidden reports whether err is an authorization denial.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrAdminRequired) || errors.Is(err, ErrMembershipRequired)
}
