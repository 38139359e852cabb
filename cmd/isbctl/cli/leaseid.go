package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	isbclient "github.com/eu-native-platform/libraries/go/isb-client"
)

// RegisterLeaseIDCommands adds offline lease id encoding commands.
func RegisterLeaseIDCommands(root *cobra.Command) {
	leaseIDCmd := &cobra.Command{
		Use:   "lease-id",
		Short: "Encode and decode lease identifiers",
	}

	leaseIDCmd.AddCommand(&cobra.Command{
		Use:   "encode <userEmail> <uuid>",
		Short: "Print the lease id for a user email and lease UUID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), isbclient.ConstructLeaseID(args[0], args[1]))
			return nil
		},
	})

	leaseIDCmd.AddCommand(&cobra.Command{
		Use:   "decode <leaseId>",
		Short: "Print the user email and UUID a lease id encodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := isbclient.ParseLeaseID(args[0])
			if !ok {
				return fmt.Errorf("not a lease id: %q", args[0])
			}
			return printJSON(cmd, key)
		},
	})

	root.AddCommand(leaseIDCmd)
}
