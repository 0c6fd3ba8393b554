// Package audit stores a trail of privileged actions in audit_logs.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"mcpgate/internal/platform/auth"
)

type Entry struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	APIKeyID       string         `json:"api_key_id,omitempty"`
	Action         string         `json:"action"`
	ResourceType   string         `json:"resource_type"`
	ResourceID     string         `json:"resource_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	CreatedAt      int64          `json:"created_at"`
}

// NewEntry attributes an action to the caller identified by id. A nil
// identity is allowed for operator actions run outside a request.
func NewEntry(id *auth.Identity, action, resourceType, resourceID string) *Entry {
	e := &Entry{Action: action, ResourceType: resourceType, ResourceID: resourceID}
	if id == nil {
		return e
	}
	if id.Organization != nil {
		e.OrganizationID = id.Organization.ID
	}
	if id.User != nil {
		e.UserID = id.User.ID
	}
	if id.APIKey != nil {
		e.APIKeyID = id.APIKey.ID
	}
	return e
}

type clientKey struct{}

type client struct {
	ip        string
	userAgent string
}

// WithClient stores the caller's address and user agent for entries recorded
// under ctx.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, client{ip: ip, userAgent: userAgent})
}

type Logger struct {
	db      *sql.DB
	now     func() time.Time
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db, now: time.Now, timeout: 5 * time.Second}
}

// Record writes e before returning.
func (l *Logger) Record(ctx context.Context, e *Entry) error {
	l.prepare(ctx, e)
	return l.insert(ctx, e)
}

// Log writes e in the background. Failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, e *Entry) {
	l.prepare(ctx, e)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		// the request context is usually gone by the time this runs
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		if err := l.insert(writeCtx, e); err != nil {
			log.Error().Err(err).
				Str("action", e.Action).
				Str("resource_id", e.ResourceID).
				Msg("failed to write audit log")
		}
	}()
}

// Wait blocks until every entry passed to Log has been written.
func (l *Logger) Wait() {
	l.wg.Wait()
}

func (l *Logger) prepare(ctx context.Context, e *Entry) {
	if e.ID == "" {
		e.ID = "audit_" + uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = l.now().Unix()
	}
	if c, ok := ctx.Value(clientKey{}).(client); ok {
		if e.IPAddress == "" {
			e.IPAddress = c.ip
		}
		if e.UserAgent == "" {
			e.UserAgent = c.userAgent
		}
	}
}

func (l *Logger) insert(ctx context.Context, e *Entry) error {
	var metadata sql.NullString
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO audit_logs (id, organization_id, user_id, api_key_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		e.ID, nullable(e.OrganizationID), nullable(e.UserID), nullable(e.APIKeyID),
		e.Action, e.ResourceType, nullable(e.ResourceID), metadata,
		nullable(e.IPAddress), nullable(e.UserAgent), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByOrg returns the newest entries of an organization first.
func (l *Logger) ListByOrg(ctx context.Context, orgID string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, organization_id, user_id, api_key_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE organization_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	rows, err := l.db.QueryContext(ctx, query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e                                                 Entry
			org, user, key, resource, metadata, ip, userAgent sql.NullString
		)
		if err := rows.Scan(&e.ID, &org, &user, &key, &e.Action, &e.ResourceType, &resource, &metadata, &ip, &userAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OrganizationID, e.UserID, e.APIKeyID = org.String, user.String, key.String
		e.ResourceID, e.IPAddress, e.UserAgent = resource.String, ip.String, userAgent.String
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Prune deletes entries created before the unix time before.
func (l *Logger) Prune(ctx context.Context, before int64) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("prune audit logs: %w", err)
	}
	return res.RowsAffected()
}
