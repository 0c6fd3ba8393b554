package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"mcpgate/internal/platform/models"
)

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *models.OrganizationMembership) error {
	if m.ID == "" {
		m.ID = "mem_" + uuid.NewString()
	}
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if _, err := models.ParseRole(string(m.Role)); err != nil {
		return err
	}
	now := time.Now().Unix()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organization_memberships (id, user_id, organization_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.OrganizationID, string(m.Role), m.CreatedAt, m.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateMembership
	}
	return err
}

// GetRole returns the caller's role in orgID. found is false when the user
// has no membership there.
func (r *MembershipRepository) GetRole(ctx context.Context, userID, orgID string) (role models.Role, found bool, err error) {
	var s string
	err = r.db.QueryRowContext(ctx, `
		SELECT role FROM organization_memberships WHERE user_id = ? AND organization_id = ?
	`, userID, orgID).Scan(&s)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return models.Role(s), true, nil
}

func (r *MembershipRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.OrganizationMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, organization_id, role, created_at, updated_at
		FROM organization_memberships WHERE organization_id = ? ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.OrganizationMembership
	for rows.Next() {
		var m models.OrganizationMembership
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrganizationID, &role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}
