package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcpgate/internal/platform/models"
	"mcpgate/internal/platform/repositories"
)

type stubKeys struct {
	byDigest map[string]*repositories.ResolvedKey
	err      error
	calls    int
}

func (s *stubKeys) FindActiveByDigest(_ context.Context, digest string, _ int64) (*repositories.ResolvedKey, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byDigest[digest], nil
}

type stubUsage struct {
	keyID string
	at    time.Time
	err   error
}

func (s *stubUsage) RecordUsage(_ context.Context, keyID string, at time.Time) error {
	s.keyID = keyID
	s.at = at
	return s.err
}

func newStubKeys(token string) *stubKeys {
	return &stubKeys{byDigest: map[string]*repositories.ResolvedKey{
		Digest(token): {
			Key:          &models.APIKey{ID: "key_1", OrganizationID: "org_1"},
			Organization: &models.Organization{ID: "org_1", Name: "Acme Corp"},
			User:         &models.User{ID: "usr_1", Name: "Alice Johnson"},
		},
	}}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		token   string
		wantErr error
	}{
		{"", "", ErrMissingHeader},
		{"   ", "", ErrMissingHeader},
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"BEARER abc", "abc", nil},
		{"Bearer  abc ", "abc", nil},
		{"Basic abc", "", ErrMalformedHeader},
		{"Bearer", "", ErrMalformedHeader},
		{"Bearer ", "", ErrMalformedHeader},
		{"abc", "", ErrMalformedHeader},
		{"Bearer abc def", "", ErrMalformedHeader},
	}
	for _, tt := range tests {
		token, err := BearerToken(tt.header)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "header %q", tt.header)
			continue
		}
		assert.NoError(t, err, "header %q", tt.header)
		assert.Equal(t, tt.token, token)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token establishes identity and records usage", func(t *testing.T) {
		keys := newStubKeys("sk_good")
		usage := &stubUsage{}
		a := NewAuthenticator(keys, usage)
		before := time.Now()

		id, err := a.Authenticate(ctx, "Bearer sk_good")
		require.NoError(t, err)
		assert.Equal(t, "key_1", id.APIKey.ID)
		assert.Equal(t, "Acme Corp", id.Organization.Name)
		assert.Equal(t, "usr_1", id.User.ID)

		assert.Equal(t, "key_1", usage.keyID)
		assert.False(t, usage.at.Before(before.Truncate(time.Second)))
	})

	t.Run("usage failure does not fail the request", func(t *testing.T) {
		a := NewAuthenticator(newStubKeys("sk_good"), &stubUsage{err: errors.New("database is locked")})

		id, err := a.Authenticate(ctx, "Bearer sk_good")
		require.NoError(t, err)
		assert.NotNil(t, id)
	})

	t.Run("missing and malformed headers never reach the store", func(t *testing.T) {
		keys := newStubKeys("sk_good")
		a := NewAuthenticator(keys, nil)

		_, err := a.Authenticate(ctx, "")
		assert.ErrorIs(t, err, ErrMissingHeader)
		_, err = a.Authenticate(ctx, "Token sk_good")
		assert.ErrorIs(t, err, ErrMalformedHeader)
		assert.Zero(t, keys.calls)
	})

	t.Run("unknown token", func(t *testing.T) {
		usage := &stubUsage{}
		a := NewAuthenticator(newStubKeys("sk_good"), usage)

		_, err := a.Authenticate(ctx, "Bearer sk_bad")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Empty(t, usage.keyID)
	})

	t.Run("store errors are not reported as invalid tokens", func(t *testing.T) {
		a := NewAuthenticator(&stubKeys{err: errors.New("disk I/O error")}, nil)

		_, err := a.Authenticate(ctx, "Bearer sk_good")
		require.Error(t, err)
		assert.False(t, IsAuthenticationFailure(err))
	})
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "Missing Authorization header", FailureMessage(ErrMissingHeader))
	assert.Equal(t, "Malformed Authorization header", FailureMessage(ErrMalformedHeader))
	assert.Equal(t, "Invalid or expired API token", FailureMessage(ErrInvalidToken))
	assert.Equal(t, "Admin access required", FailureMessage(ErrAdminRequired))
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, TokenPrefix))
	assert.Len(t, token, len(TokenPrefix)+64)

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	assert.Len(t, Digest(token), 64)
	assert.Equal(t, Digest(token), Digest(token))
	assert.Equal(t, token[:12]+"...", DisplayPrefix(token))
}
