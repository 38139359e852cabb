package cli

import (
	"github.com/spf13/cobra"

	isbclient "github.com/eu-native-platform/libraries/go/isb-client"
)

// RegisterAccountCommands adds sandbox account pool commands.
func RegisterAccountCommands(root *cobra.Command) {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect and extend the sandbox account pool",
	}

	accountCmd.AddCommand(newAccountGetCmd())
	accountCmd.AddCommand(newAccountListCmd())
	accountCmd.AddCommand(newAccountRegisterCmd())

	root.AddCommand(accountCmd)
}

func newAccountGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <awsAccountId>",
		Short: "Fetch one sandbox account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			return printRecord(cmd, client.FetchAccount(cmd.Context(), args[0], correlationID()))
		},
	}
}

func newAccountListCmd() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every sandbox account, following pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			accounts := client.FetchAllAccounts(cmd.Context(), correlationID(), isbclient.WithMaxPages(maxPages))
			return printJSON(cmd, accounts)
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", isbclient.DefaultMaxPages, "stop after this many pages")

	return cmd
}

func newAccountRegisterCmd() *cobra.Command {
	var (
		name  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "register <awsAccountId>",
		Short: "Add an AWS account to the sandbox pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			result := client.RegisterAccount(cmd.Context(), isbclient.RegisterAccountRequest{
				AWSAccountID: args[0],
				Name:         name,
				Email:        email,
			}, correlationID())
			return printResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name")
	cmd.Flags().StringVar(&email, "account-email", "", "root email of the account")

	return cmd
}
