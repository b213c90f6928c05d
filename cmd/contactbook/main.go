package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/memohai/contactbook/cmd/contactbook/modules"
	"github.com/memohai/contactbook/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "contactbook",
	Short: "Contact book web application",
	Long: `contactbook serves a small contact book as server-rendered HTML pages:
list and search contacts, add a contact, view one contact.

Run without a subcommand to start the web server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate up [N] | down [N] | version | force N",
	Short: "Apply, roll back or inspect database migrations",
	Long:  `up and down run every pending migration, or only N steps when N is given.
force N records version N without running anything, to recover from a dirty state.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return modules.Migrate(configPath, args[0], args[1:])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "contactbook %s\n", info)
		if info.BuildTime != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "built %s with %s\n", info.BuildTime, info.GoVersion)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config.toml (env CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func runServe() error {
	app := fx.New(modules.App(configPath))
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
