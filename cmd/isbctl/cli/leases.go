package cli

import (
	"github.com/spf13/cobra"

	isbclient "github.com/eu-native-platform/libraries/go/isb-client"
)

// RegisterLeaseCommands adds lease lookup and review commands.
func RegisterLeaseCommands(root *cobra.Command) {
	leaseCmd := &cobra.Command{
		Use:   "lease",
		Short: "Look up and review sandbox leases",
	}

	leaseCmd.AddCommand(newLeaseGetCmd())
	leaseCmd.AddCommand(newLeaseGetByKeyCmd())
	leaseCmd.AddCommand(newLeaseReviewCmd())

	root.AddCommand(leaseCmd)
}

func newLeaseGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <leaseId>",
		Short: "Fetch a lease by its encoded id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			return printRecord(cmd, client.FetchLease(cmd.Context(), args[0], correlationID()))
		},
	}
}

func newLeaseGetByKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-by-key <userEmail> <uuid>",
		Short: "Fetch a lease by user email and lease UUID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			return printRecord(cmd, client.FetchLeaseByKey(cmd.Context(), args[0], args[1], correlationID()))
		},
	}
}

func newLeaseReviewCmd() *cobra.Command {
	var (
		action   string
		approver string
	)

	cmd := &cobra.Command{
		Use:   "review <leaseId>",
		Short: "Approve or deny a pending lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			result := client.ReviewLease(cmd.Context(), args[0], isbclient.ReviewLeaseRequest{
				Action:        action,
				ApproverEmail: approver,
			}, correlationID())
			return printResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Approve or Deny")
	cmd.Flags().StringVar(&approver, "approver", "", "email of the approving user")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}
