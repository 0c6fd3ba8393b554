package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"mcpgate/internal/platform/models"
)

// ResolvedKey is an active API key together with the organization it
// belongs to and its owner, if it has one.
type ResolvedKey struct {
	Key          *models.APIKey
	Organization *models.Organization
	User         *models.User
}

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	now := time.Now().Unix()
	key.CreatedAt = now
	key.UpdatedAt = now

	query := `
		INSERT INTO api_keys (id, organization_id, user_id, name, token_digest, token_prefix, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.OrganizationID, key.UserID, key.Name, key.TokenDigest, key.TokenPrefix, key.ExpiresAt, key.CreatedAt, key.UpdatedAt)
	return err
}

// FindActiveByDigest resolves a token digest against keys that are neither
// revoked nor expired at now. Inactive and unknown digests both yield nil, nil.
func (r *APIKeyRepository) FindActiveByDigest(ctx context.Context, digest string, now int64) (*ResolvedKey, error) {
	query := `
		SELECT k.id, k.organization_id, k.user_id, k.name, k.token_prefix, k.last_used_at, k.expires_at, k.revoked_at, k.created_at, k.updated_at,
		       o.id, o.name, o.created_at, o.updated_at,
		       u.id, u.organization_id, u.email, u.name, u.created_at, u.updated_at
		FROM api_keys k
		JOIN organizations o ON o.id = k.organization_id
		LEFT JOIN users u ON u.id = k.user_id
		WHERE k.token_digest = ?
		  AND k.revoked_at IS NULL
		  AND (k.expires_at IS NULL OR k.expires_at > ?)
	`

	var k models.APIKey
	var o models.Organization
	var userID, userOrgID, userEmail, userName sql.NullString
	var userCreatedAt, userUpdatedAt sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, digest, now).Scan(
		&k.ID, &k.OrganizationID, &k.UserID, &k.Name, &k.TokenPrefix, &k.LastUsedAt, &k.ExpiresAt, &k.RevokedAt, &k.CreatedAt, &k.UpdatedAt,
		&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt,
		&userID, &userOrgID, &userEmail, &userName, &userCreatedAt, &userUpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	k.TokenDigest = digest

	resolved := &ResolvedKey{Key: &k, Organization: &o}
	if userID.Valid {
		resolved.User = &models.User{
			ID:             userID.String,
			OrganizationID: userOrgID.String,
			Email:          userEmail.String,
			Name:           userName.String,
			CreatedAt:      userCreatedAt.Int64,
			UpdatedAt:      userUpdatedAt.Int64,
		}
	}
	return resolved, nil
}

func (r *APIKeyRepository) GetByID(ctx context.Context, id string) (*models.APIKey, error) {
	query := `SELECT id, organization_id, user_id, name, token_prefix, last_used_at, expires_at, revoked_at, created_at, updated_at FROM api_keys WHERE id = ?`

	var k models.APIKey
	err := r.db.QueryRowContext(ctx, query, id).Scan(&k.ID, &k.OrganizationID, &k.UserID, &k.Name, &k.TokenPrefix, &k.LastUsedAt, &k.ExpiresAt, &k.RevokedAt, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &k, nil
}

func (r *APIKeyRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.APIKey, error) {
	query := `SELECT id, user_id, name, token_prefix, last_used_at, expires_at, revoked_at, created_at, updated_at FROM api_keys WHERE organization_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.TokenPrefix, &k.LastUsedAt, &k.ExpiresAt, &k.RevokedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		k.OrganizationID = orgID
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// Revoke marks the key revoked. Revoking an already revoked key keeps the
// original timestamp.
func (r *APIKeyRepository) Revoke(ctx context.Context, id string) error {
	now := time.Now().Unix()
	res, err := r.db.ExecContext(ctx, `UPDATE api_keys SET revoked_at = COALESCE(revoked_at, ?), updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastUsed is a blind point write; concurrent touches of the same key
// are last-write-wins.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, at.Unix(), id)
	return err
}

// RecordUsage satisfies auth.UsageRecorder with a synchronous write.
func (r *APIKeyRepository) RecordUsage(ctx context.Context, keyID string, at time.Time) error {
	return r.TouchLastUsed(ctx, keyID, at)
}
