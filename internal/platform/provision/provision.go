// Package provision creates organizations, users, memberships and API keys.
// It is the only place plain API tokens exist; they are returned once to the
// caller and never stored.
package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"mcpgate/internal/pkg/validator"
	"mcpgate/internal/platform/auth"
	"mcpgate/internal/platform/models"
	"mcpgate/internal/platform/repositories"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	Orgs        *repositories.OrganizationRepository
	Users       *repositories.UserRepository
	Memberships *repositories.MembershipRepository
	Keys        *repositories.APIKeyRepository

	// DefaultKeyTTL applies to keys issued without a TTL. Zero keeps them
	// open-ended.
	DefaultKeyTTL time.Duration
}

func NewService(db *sql.DB) *Service {
	return &Service{
		Orgs:        repositories.NewOrganizationRepository(db),
		Users:       repositories.NewUserRepository(db),
		Memberships: repositories.NewMembershipRepository(db),
		Keys:        repositories.NewAPIKeyRepository(db),
	}
}

func (s *Service) CreateOrganization(ctx context.Context, name string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if err := validator.Length("organization name", name, 1, 200); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	org := &models.Organization{Name: name}
	if err := s.Orgs.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

// CreateUser stores a user with a bcrypt password hash. An empty password
// leaves the hash empty, so the user cannot sign in to the dashboard.
func (s *Service) CreateUser(ctx context.Context, orgID, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.Email(email); err != nil {
		return nil, fmt.Errorf("%w: %v %q", ErrInvalidInput, err, email)
	}

	user := &models.User{OrganizationID: orgID, Name: name, Email: email}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Service) AddMember(ctx context.Context, userID, orgID string, role models.Role) (*models.OrganizationMembership, error) {
	m := &models.OrganizationMembership{UserID: userID, OrganizationID: orgID, Role: role}
	if err := s.Memberships.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return m, nil
}

type KeyRequest struct {
	OrganizationID string
	UserID         string // optional
	Name           string
	TTL            time.Duration // zero falls back to the service default
	NoExpiry       bool
}

type IssuedKey struct {
	Key   *models.APIKey
	Token string
}

// IssueKey generates a token server-side and stores its digest.
func (s *Service) IssueKey(ctx context.Context, req KeyRequest) (*IssuedKey, error) {
	name := strings.TrimSpace(req.Name)
	if err := validator.Length("key name", name, 2, 100); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.TTL < 0 {
		return nil, fmt.Errorf("%w: expiration must be in the future", ErrInvalidInput)
	}
	if req.NoExpiry && req.TTL > 0 {
		return nil, fmt.Errorf("%w: a key cannot have both a ttl and no expiry", ErrInvalidInput)
	}
	ttl := req.TTL
	if ttl == 0 && !req.NoExpiry {
		ttl = s.DefaultKeyTTL
	}

	org, err := s.Orgs.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s not found", ErrInvalidInput, req.OrganizationID)
	}
	if req.UserID != "" {
		_, found, err := s.Memberships.GetRole(ctx, req.UserID, org.ID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: user %s is not a member of organization %s", ErrInvalidInput, req.UserID, org.ID)
		}
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}

	key := &models.APIKey{
		OrganizationID: org.ID,
		Name:           name,
		TokenDigest:    auth.Digest(token),
		TokenPrefix:    auth.DisplayPrefix(token),
	}
	if req.UserID != "" {
		userID := req.UserID
		key.UserID = &userID
	}
	if ttl > 0 {
		exp := time.Now().Add(ttl).Unix()
		key.ExpiresAt = &exp
	}

	if err := s.Keys.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return &IssuedKey{Key: key, Token: token}, nil
}

// RevokeKey revokes keyID. When orgID is set the key must belong to it.
func (s *Service) RevokeKey(ctx context.Context, orgID, keyID string) (*models.APIKey, error) {
	key, err := s.Keys.GetByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key == nil || (orgID != "" && key.OrganizationID != orgID) {
		return nil, repositories.ErrNotFound
	}
	if err := s.Keys.Revoke(ctx, keyID); err != nil {
		return nil, err
	}
	return s.Keys.GetByID(ctx, keyID)
}

// ListKeys returns the organization's keys, newest first.
func (s *Service) ListKeys(ctx context.Context, orgID string) ([]*models.APIKey, error) {
	return s.Keys.ListByOrg(ctx, orgID)
}
