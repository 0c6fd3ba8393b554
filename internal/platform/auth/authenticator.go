package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"mcpgate/internal/platform/models"
	"mcpgate/internal/platform/repositories"
)

var (
	ErrMissingHeader   = errors.New("missing authorization header")
	ErrMalformedHeader = errors.New("malformed authorization header")
	ErrInvalidToken    = errors.New("invalid or expired api token")
)

var failureMessages = map[error]string{
	ErrMissingHeader:      "Missing Authorization header",
	ErrMalformedHeader:    "Malformed Authorization header",
	ErrInvalidToken:       "Invalid or expired API token",
	ErrMembershipRequired: "Organization membership required",
	ErrAdminRequired:      "Admin access required",
}

// FailureMessage is the caller-facing text for an authentication or
// authorization failure.
func FailureMessage(err error) string {
	for target, msg := range failureMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

// Identity is the caller resolved for a single request. It is built once by
// the Authenticator and passed explicitly to everything that needs it.
type Identity struct {
	User         *models.User
	Organization *models.Organization
	APIKey       *models.APIKey
}

// KeyResolver looks up active keys by token digest.
type KeyResolver interface {
	FindActiveByDigest(ctx context.Context, digest string, now int64) (*repositories.ResolvedKey, error)
}

// UsageRecorder stores the last time a key authenticated a request.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, keyID string, at time.Time) error
}

type Authenticator struct {
	keys  KeyResolver
	usage UsageRecorder
	now   func() time.Time
}

func NewAuthenticator(keys KeyResolver, usage UsageRecorder) *Authenticator {
	return &Authenticator{keys: keys, usage: usage, now: time.Now}
}

// Authenticate resolves the value of an Authorization header. Unknown,
// revoked and expired tokens all fail with ErrInvalidToken.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Identity, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}

	now := a.now()
	resolved, err := a.keys.FindActiveByDigest(ctx, Digest(token), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("resolve api key: %w", err)
	}
	if resolved == nil {
		return nil, ErrInvalidToken
	}

	if a.usage != nil {
		if err := a.usage.RecordUsage(ctx, resolved.Key.ID, now); err != nil {
			log.Warn().Err(err).Str("api_key_id", resolved.Key.ID).Msg("failed to record api key usage")
		}
	}

	return &Identity{
		User:         resolved.User,
		Organization: resolved.Organization,
		APIKey:       resolved.Key,
	}, nil
}

// BearerToken extracts the token from "Bearer <token>". The scheme is matched
// case-insensitively.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingHeader
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedHeader
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}
	return token, nil
}

// IsAuthenticationFailure reports whether err is one of the caller-facing
// authentication failures rather than a store error.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrMissingHeader) || errors.Is(err, ErrMalformedHeader) || errors.Is(err, ErrInvalidToken)
}
