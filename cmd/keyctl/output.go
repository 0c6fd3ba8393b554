package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
	"mcpgate/internal/platform/models"
)

// keyView is the printable form of a key. The digest never leaves the store.
type keyView struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	TokenPrefix string `json:"token_prefix" yaml:"token_prefix"`
	UserID      string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Status      string `json:"status" yaml:"status"`
	LastUsedAt  string `json:"last_used_at,omitempty" yaml:"last_used_at,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

func newKeyView(k *models.APIKey, now time.Time) keyView {
	v := keyView{
		ID:          k.ID,
		Name:        k.Name,
		TokenPrefix: k.TokenPrefix,
		Status:      keyStatus(k, now),
		LastUsedAt:  formatUnix(k.LastUsedAt),
		ExpiresAt:   formatUnix(k.ExpiresAt),
		CreatedAt:   formatUnix(&k.CreatedAt),
	}
	if k.UserID != nil {
		v.UserID = *k.UserID
	}
	return v
}

func keyStatus(k *models.APIKey, now time.Time) string {
	switch {
	case k.Revoked():
		return "revoked"
	case k.Expired(now.Unix()):
		return "expired"
	default:
		return "active"
	}
}

func formatUnix(ts *int64) string {
	if ts == nil {
		return ""
	}
	return time.Unix(*ts, 0).UTC().Format(time.RFC3339)
}

func writeKeys(w io.Writer, keys []*models.APIKey, format string, now time.Time) error {
	views := make([]keyView, 0, len(keys))
	for _, k := range keys {
		views = append(views, newKeyView(k, now))
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSTATUS\tLAST USED\tEXPIRES")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				v.ID, v.Name, v.TokenPrefix, v.Status, orDash(v.LastUsedAt), orDash(v.ExpiresAt))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
