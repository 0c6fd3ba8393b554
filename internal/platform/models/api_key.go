package models

type APIKey struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	UserID         *string `json:"user_id,omitempty"`
	Name           string  `json:"name"`
	TokenDigest    string  `json:"-"`
	TokenPrefix    string  `json:"token_prefix"`
	LastUsedAt     *int64  `json:"last_used_at,omitempty"`
	ExpiresAt      *int64  `json:"expires_at,omitempty"`
	RevokedAt      *int64  `json:"revoked_at,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
}

func (k *APIKey) Expired(now int64) bool {
	return k.ExpiresAt != nil && *k.ExpiresAt <= now
}

func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// Active reports whether the key may authenticate at unix time now.
func (k *APIKey) Active(now int64) bool {
	return !k.Revoked() && !k.Expired(now)
}
