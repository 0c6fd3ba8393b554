package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/provision"
)

var (
	keyOrg       string
	keyUser      string
	keyName      string
	keyExpiresIn time.Duration
	keyNoExpiry  bool
	keyOutput    string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Create, list and revoke API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key and print its token once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		issued, err := e.svc.IssueKey(ctx, provision.KeyRequest{
			OrganizationID: keyOrg,
			UserID:         keyUser,
			Name:           keyName,
			TTL:            keyExpiresIn,
			NoExpiry:       keyNoExpiry,
		})
		if err != nil {
			return err
		}

		entry := audit.NewEntry(nil, "api_key.create", "api_key", issued.Key.ID)
		entry.OrganizationID = issued.Key.OrganizationID
		entry.Metadata = map[string]any{"name": issued.Key.Name, "via": "keyctl"}
		if err := e.audit.Record(ctx, entry); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "Created API key %s (%s)\n", issued.Key.ID, issued.Key.Name)
		fmt.Fprintln(out, issued.Token)
		color.New(color.FgYellow).Fprintln(out, "Store this token now; it cannot be shown again.")
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the API keys of an organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		keys, err := e.svc.ListKeys(ctx, keyOrg)
		if err != nil {
			return err
		}
		return writeKeys(cmd.OutOrStdout(), keys, keyOutput, time.Now())
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		key, err := e.svc.RevokeKey(ctx, keyOrg, args[0])
		if err != nil {
			return fmt.Errorf("revoke %s: %w", args[0], err)
		}

		entry := audit.NewEntry(nil, "api_key.revoke", "api_key", key.ID)
		entry.OrganizationID = key.OrganizationID
		entry.Metadata = map[string]any{"name": key.Name, "via": "keyctl"}
		if err := e.audit.Record(ctx, entry); err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Revoked API key %s (%s)\n", key.ID, key.Name)
		return nil
	},
}

func init() {
	keysCreateCmd.Flags().StringVar(&keyOrg, "org", "", "Organization ID (required)")
	keysCreateCmd.Flags().StringVar(&keyUser, "user", "", "Owning user ID; empty issues an organization key")
	keysCreateCmd.Flags().StringVar(&keyName, "name", "", "Key name, 2-100 characters (required)")
	keysCreateCmd.Flags().DurationVar(&keyExpiresIn, "expires-in", 0, "Lifetime such as 720h; 0 uses auth.default_key_ttl")
	keysCreateCmd.Flags().BoolVar(&keyNoExpiry, "no-expiry", false, "Issue a key that never expires")
	keysCreateCmd.MarkFlagsMutuallyExclusive("expires-in", "no-expiry")
	keysCreateCmd.MarkFlagRequired("org")
	keysCreateCmd.MarkFlagRequired("name")

	keysListCmd.Flags().StringVar(&keyOrg, "org", "", "Organization ID (required)")
	keysListCmd.Flags().StringVarP(&keyOutput, "output", "o", "table", "Output format: table, json or yaml")
	keysListCmd.MarkFlagRequired("org")

	keysRevokeCmd.Flags().StringVar(&keyOrg, "org", "", "Only revoke if the key belongs to this organization")

	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}
