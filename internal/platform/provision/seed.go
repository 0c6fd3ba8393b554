package provision

import (
	"context"
	"time"

	"mcpgate/internal/platform/models"
)

type SeedResult struct {
	Organizations []*models.Organization
	Users         []*models.User
	Memberships   []*models.OrganizationMembership
	Keys          []*IssuedKey
}

// Seed creates the development data set: two organizations, three users with
// owner/admin/member roles, and one key per user in Acme Corp.
func (s *Service) Seed(ctx context.Context, password string) (*SeedResult, error) {
	res := &SeedResult{}

	for _, name := range []string{"Acme Corp", "Widget Inc"} {
		org, err := s.CreateOrganization(ctx, name)
		if err != nil {
			return nil, err
		}
		res.Organizations = append(res.Organizations, org)
	}
	acme, widget := res.Organizations[0], res.Organizations[1]

	people := []struct{ name, email string }{
		{"Alice Johnson", "alice@example.com"},
		{"Bob Smith", "bob@example.com"},
		{"Charlie Brown", "charlie@example.com"},
	}
	for _, p := range people {
		user, err := s.CreateUser(ctx, acme.ID, p.name, p.email, password)
		if err != nil {
			return nil, err
		}
		res.Users = append(res.Users, user)
	}
	alice, bob, charlie := res.Users[0], res.Users[1], res.Users[2]

	memberships := []struct {
		user *models.User
		org  *models.Organization
		role models.Role
	}{
		{alice, acme, models.RoleOwner},
		{bob, acme, models.RoleAdmin},
		{charlie, acme, models.RoleMember},
		{alice, widget, models.RoleOwner},
		{bob, widget, models.RoleMember},
	}
	for _, m := range memberships {
		membership, err := s.AddMember(ctx, m.user.ID, m.org.ID, m.role)
		if err != nil {
			return nil, err
		}
		res.Memberships = append(res.Memberships, membership)
	}

	const month = 30 * 24 * time.Hour
	keys := []struct {
		user *models.User
		name string
		ttl  time.Duration
	}{
		{alice, "Production API Key", 12 * month},
		{bob, "Development API Key", 6 * month},
		{charlie, "Read Only API Key", 3 * month},
	}
	for _, k := range keys {
		issued, err := s.IssueKey(ctx, KeyRequest{
			OrganizationID: acme.ID,
			UserID:         k.user.ID,
			Name:           k.name,
			TTL:            k.ttl,
		})
		if err != nil {
			return nil, err
		}
		res.Keys = append(res.Keys, issued)
	}

	return res, nil
}
