package cli

import (
	"github.com/spf13/cobra"
)

// RegisterTemplateCommands adds lease template commands.
func RegisterTemplateCommands(root *cobra.Command) {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Look up lease templates",
	}

	templateCmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a lease template by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			return printRecord(cmd, client.FetchTemplate(cmd.Context(), args[0], correlationID()))
		},
	})

	root.AddCommand(templateCmd)
}
