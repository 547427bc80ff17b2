package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/commands"
)

var version = "dev" // Will be set during build

// offline marks commands that run without connecting to a server
const offline = "offline"

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "llmadmin",
		Short: "llmadmin - administer an LLM serving platform",
		Long: `llmadmin CLI - manage users, permission groups and API quotas of an
LLM serving platform from the terminal.

Sign in once with 'llmadmin login'. The token and API key are kept in the OS
keychain (or a 0600 file) and sent with every request until the server
rejects them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[offline] == "true" {
				return nil
			}
			rt, err := commands.Bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			cmd.SetContext(commands.WithRuntime(cmd.Context(), rt))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			commands.CloseRuntime(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", "", "Server URL or alias from llmadmin.json")
	rootCmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(markOffline(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "llmadmin version %s\n", version)
		},
	}))

	rootCmd.AddCommand(markOffline(commands.NewInitCmd()))
	rootCmd.AddCommand(markOffline(commands.NewSelectServerCmd()))
	rootCmd.AddCommand(markOffline(commands.NewDashCmd()))
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewGroupsCmd())
	rootCmd.AddCommand(commands.NewQuotasCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewMetricsCmd())

	return rootCmd
}

func markOffline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[offline] = "true"
	return cmd
}

// Execute runs the root command
func Execute() error {
	cmd, err := NewRootCmd().ExecuteC()
	// post-run hooks are skipped when a command fails
	commands.CloseRuntime(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
