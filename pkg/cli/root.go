package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// DefaultAdminURL is used when neither --admin-url nor JETMOCK_ADMIN_URL is set.
const DefaultAdminURL = "http://localhost:4290"

var (
	// Persistent flags available to all subcommands
	adminURL   string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jetmock",
	Short: "jetmock is a programmable mock server for HTTP and Kafka",
	Long: `jetmock serves user-defined mock flows. A flow is triggered by an HTTP
request or a Kafka message and runs an ordered list of steps: it may answer
the request, call other services, publish to Kafka and update global variables.

Flows, groups, brokers and global variables are managed through the admin API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", defaultAdminURL(), "Admin API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

func defaultAdminURL() string {
	if v := os.Getenv("JETMOCK_ADMIN_URL"); v != "" {
		return v
	}
	return DefaultAdminURL
}
