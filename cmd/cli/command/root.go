package command

// root.go defines the root command and the flags shared by every subcommand.

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yamdb/cmd/cli/authentication"
	"yamdb/cmd/cli/command/client"
)

var (
	apiURL  string        // global flag for API server URL
	timeout time.Duration // per-command deadline
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "yamdb",
	Short: "yamdb - YaMDb command line interface",
	Long: `yamdb manages a YaMDb installation and talks to its API.

Admin commands (migrate, createsuperuser, import) connect to the database
configured by DATABASE_URL. Everything else goes through the REST API.`,
	SilenceUsage: true,
}

// Execute is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080/api/v1", "API server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for a single command")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// apiClient returns a client carrying the stored token, if any.
func apiClient() *client.HTTPClient {
	c := client.NewHTTPClient(apiURL)
	if creds, err := authentication.GetToken(); err == nil {
		c.SetToken(creds.Token)
	}
	return c
}
