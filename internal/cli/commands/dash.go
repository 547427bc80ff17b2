package commands

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	appconfig "github.com/llmadmin-dev/llmadmin/internal/config"
)

// browserOpener is swapped out in tests
var browserOpener = openBrowser

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var gatewayURL string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the web dashboard in browser",
		Long: `Open the web dashboard in browser.

The dashboard is served by llmadmin-dash. Unless --url is given, the address
comes from LLMADMIN_LISTEN_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(cmd, gatewayURL)
		},
	}

	cmd.Flags().StringVar(&gatewayURL, "url", "", "Dashboard gateway URL")

	return cmd
}

func runDash(cmd *cobra.Command, gatewayURL string) error {
	if gatewayURL == "" {
		cfg, err := appconfig.Load()
		if err != nil {
			return err
		}
		gatewayURL = listenURL(cfg.Gateway.ListenAddr)
	}
	dashboardURL := strings.TrimRight(gatewayURL, "/") + "/dashboard"

	fmt.Fprintf(cmd.OutOrStdout(), "Opening dashboard at %s\n", dashboardURL)

	if err := browserOpener(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// listenURL turns a listen address such as ":3000" into a browsable URL
func listenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
