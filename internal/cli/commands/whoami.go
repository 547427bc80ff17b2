package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/auth"
	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
	"github.com/llmadmin-dev/llmadmin/internal/cli/output"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

type whoamiResult struct {
	Server         string       `json:"server" yaml:"server"`
	User           *client.User `json:"user" yaml:"user"`
	Verified       bool         `json:"verified" yaml:"verified"`
	TokenExpiresAt *time.Time   `json:"tokenExpiresAt,omitempty" yaml:"tokenExpiresAt,omitempty"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the signed-in user.

By default the stored credentials are checked against the server. With
--cached the last known session is shown without contacting the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cached {
				return runWhoamiCached(cmd)
			}
			return protected(runWhoami)(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Show the last known session without contacting the server")

	return cmd
}

func runWhoami(cmd *cobra.Command, _ []string, rt *Runtime, snap session.Snapshot) error {
	return printWhoami(rt, whoamiResult{
		Server:         rt.Server.URL,
		User:           snap.User,
		Verified:       true,
		TokenExpiresAt: tokenExpiry(rt.Store.Get(credentials.KeyToken)),
	})
}

func runWhoamiCached(cmd *cobra.Command) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	seed, ok := rt.Provider.CachedSeed()
	if !ok || !seed.IsAuthenticated || seed.User == nil {
		return fmt.Errorf("no cached session for %s. Run 'llmadmin login' first", rt.Server.URL)
	}

	return printWhoami(rt, whoamiResult{
		Server:         rt.Server.URL,
		User:           seed.User,
		TokenExpiresAt: tokenExpiry(rt.Store.Get(credentials.KeyToken)),
	})
}

func tokenExpiry(token string) *time.Time {
	if token == "" {
		return nil
	}
	claims, err := auth.Inspect(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time
	return &t
}

func printWhoami(rt *Runtime, res whoamiResult) error {
	if rt.Printer.Format() != output.FormatTable {
		return rt.Printer.Print(res)
	}

	fields := [][2]string{
		{"Server", res.Server},
		{"Name", res.User.Name},
		{"Email", res.User.Email},
		{"Role", res.User.Role},
	}
	if res.User.TenantID != "" {
		fields = append(fields, [2]string{"Tenant", res.User.TenantID})
	}
	if res.TokenExpiresAt != nil {
		fields = append(fields, [2]string{"Token expires", formatExpiry(*res.TokenExpiresAt, time.Now())})
	}
	if !res.Verified {
		fields = append(fields, [2]string{"Status", "cached, not verified"})
	}

	output.PrintFields(rt.Printer.Writer(), fields)
	return nil
}

func formatExpiry(at, now time.Time) string {
	left := at.Sub(now)
	if left <= 0 {
		return fmt.Sprintf("%s (expired)", at.Local().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", at.Local().Format(time.RFC3339), left.Round(time.Minute))
}
