package cmd

import (
	"context"
	"fmt"

	"github.com/solatis/schemamend/internal/core/auth"
	"github.com/solatis/schemamend/internal/core/config"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage repair-api API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key signed with the newest HMAC secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, _ := cmd.Flags().GetString("client")
		name, _ := cmd.Flags().GetString("name")

		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		secretID, secret, ok := auth.PickSecret(secrets)
		if !ok {
			return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
		}

		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		issued, err := auth.IssueKey(context.Background(), queries, secretID, secret, clientID, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\nclient_id:  %s\napi_key:    %s\n", issued.APIKeyID, issued.ClientID, issued.Key)
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <api_key_id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		return auth.RevokeKey(context.Background(), queries, args[0])
	},
}

func init() {
	keysCreateCmd.Flags().String("client", "", "client ID the key authenticates as")
	keysCreateCmd.Flags().String("name", "", "human-readable key name")
	_ = keysCreateCmd.MarkFlagRequired("client")
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}
