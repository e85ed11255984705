// Command identityctl administers users and API keys directly against the
// identity database. Key issuance happens here, never over HTTP: the
// plaintext key is printed exactly once and only its digest is stored.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "identityctl",
		Short: "Curadesk identity administration",
		Long:  `Manage Curadesk users and API keys: create users, mint and revoke keys, and inspect the key inventory.`,
	}

	rootCmd.AddCommand(
		newCreateUserCommand(),
		newCreateKeyCommand(),
		newRevokeKeyCommand(),
		newListUsersCommand(),
		newListKeysCommand(),
		newSetSubscriptionCommand(),
		newSeedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
