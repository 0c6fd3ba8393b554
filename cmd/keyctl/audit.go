package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	auditOrg   string
	auditLimit int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail of an organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.audit.ListByOrg(ctx, auditOrg, auditLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, entry := range entries {
			meta, _ := json.Marshal(entry.Metadata)
			fmt.Fprintf(out, "%s  %-16s %-10s %-40s %s\n",
				time.Unix(entry.CreatedAt, 0).UTC().Format(time.RFC3339),
				entry.Action, entry.ResourceType, entry.ResourceID, meta)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditOrg, "org", "", "Organization ID (required)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum number of entries")
	auditCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(auditCmd)
}
