package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"mcpgate/internal/platform/audit"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the development organizations, users and API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.svc.Seed(ctx, seedPassword)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		for _, k := range res.Keys {
			entry := audit.NewEntry(nil, "api_key.create", "api_key", k.Key.ID)
			entry.OrganizationID = k.Key.OrganizationID
			entry.Metadata = map[string]any{"name": k.Key.Name, "via": "keyctl seed"}
			if err := e.audit.Record(ctx, entry); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "Seeded %d organizations, %d users, %d memberships\n",
			len(res.Organizations), len(res.Users), len(res.Memberships))
		fmt.Fprintln(out)
		color.New(color.FgYellow).Fprintln(out, "API keys (shown once):")
		for _, k := range res.Keys {
			fmt.Fprintf(out, "  %-22s %s\n", k.Key.Name, k.Token)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "Password for the seeded users")
	rootCmd.AddCommand(seedCmd)
}
