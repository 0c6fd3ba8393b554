package models

import "fmt"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Roles lists the valid roles from most to least privileged.
var Roles = []Role{RoleOwner, RoleAdmin, RoleMember}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Rank orders roles by privilege; unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

func (r Role) IsOwner() bool  { return r == RoleOwner }
func (r Role) IsAdmin() bool  { return r.Rank() >= RoleAdmin.Rank() }
func (r Role) IsMember() bool { return r.Rank() >= RoleMember.Rank() }

type OrganizationMembership struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           Role   `json:"role"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

func (m *OrganizationMembership) CanManageMembers() bool { return m.Role.IsAdmin() }
func (m *OrganizationMembership) CanManageAPIKeys() bool { return m.Role.IsAdmin() }
