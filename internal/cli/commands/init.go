package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/config"
	"github.com/llmadmin-dev/llmadmin/internal/cli/userconfig"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add an API server to ./llmadmin.json",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	server := config.Server{URL: config.NormalizeURL(args[0]), Alias: "new"}
	if err := server.Validate(); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	configPath := filepath.Join(currentDir, config.ConfigFileName)

	cfg := &config.Config{Servers: []config.Server{}}
	isNewConfig := true
	if _, err := os.Stat(configPath); err == nil {
		if cfg, err = config.Load(configPath); err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		isNewConfig = false
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	}

	added, ok := cfg.AddServer(server.URL)
	if !ok {
		fmt.Fprintf(out, "Server %s already exists in %s\n", added.URL, config.ConfigFileName)
		return nil
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	if len(cfg.Servers) == 1 {
		if err := userconfig.SetSelectedServer(added.URL); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to save selected server: %v\n", err)
		}
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, added.URL, added.Alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", added.URL, added.Alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'llmadmin register' if you do not have an account yet")
	fmt.Fprintln(out, "  2. Run 'llmadmin login' to authenticate")

	return nil
}
