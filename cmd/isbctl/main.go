// Command isbctl calls the Innovation Sandbox API with a service identity,
// the same way the consuming services do.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eu-native-platform/libraries/go/isb-client/cmd/isbctl/cli"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "isbctl",
		Short: "Innovation Sandbox API client",
		Long: `isbctl signs a service JWT with the secret stored in AWS Secrets Manager
and calls the Innovation Sandbox API with it.

The base URL and secret path default to ISB_API_BASE_URL and ISB_JWT_SECRET_PATH.
Client log lines are written to stderr as JSON; results go to stdout.`,
		Version:      version,
		SilenceUsage: true,
	}

	cli.RegisterGlobalFlags(rootCmd)
	cli.RegisterLeaseCommands(rootCmd)
	cli.RegisterAccountCommands(rootCmd)
	cli.RegisterTemplateCommands(rootCmd)
	cli.RegisterLeaseIDCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
