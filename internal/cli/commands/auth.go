package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/forms"
	"github.com/llmadmin-dev/llmadmin/internal/cli/prompt"
	"github.com/llmadmin-dev/llmadmin/internal/cli/provider"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set LLMADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set LLMADMIN_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	p, err := provider.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	// environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("LLMADMIN_EMAIL")
	}
	if password == "" {
		password = os.Getenv("LLMADMIN_PASSWORD")
	}

	if email == "" {
		if !prompt.IsInteractive() {
			return fmt.Errorf("email is required (use --email flag or LLMADMIN_EMAIL env var)")
		}
		if email, err = prompt.Input("Email", nil); err != nil {
			return err
		}
	}
	if password == "" {
		password, err = prompt.Password("Password")
		if errors.Is(err, prompt.ErrNotInteractive) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or LLMADMIN_PASSWORD env var)")
		}
		if err != nil {
			return err
		}
	}

	if err := forms.Validate(client.LoginRequest{Email: email, Password: password}); err != nil {
		return err
	}

	// the login screen is public: start from an anonymous session
	p.Mount(cmd.Context(), &session.Seed{})

	rt.Printer.Printf("Logging in to %s (%s)...\n", rt.Server.Alias, rt.Server.URL)
	if err := p.Login(cmd.Context(), email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	user := p.User()
	rt.Printer.Println("✓ Login successful!")
	rt.Printer.Printf("  User: %s (%s)\n", user.Name, user.Email)
	if user.IsAdmin() {
		rt.Printer.Println("  Role: Admin")
	}
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			p, err := provider.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			p.Logout(cmd.Context())
			rt.Printer.Printf("✓ Logged out of %s\n", rt.Server.Alias)
			return nil
		},
	}
}

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, name, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, name, email, password string) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	p, err := provider.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if password == "" && prompt.IsInteractive() {
		if password, err = prompt.Password("Password"); err != nil {
			return err
		}
	}

	if err := forms.Validate(client.RegisterRequest{Name: name, Email: email, Password: password}); err != nil {
		return err
	}

	p.Mount(cmd.Context(), &session.Seed{})
	if err := p.Register(cmd.Context(), email, password, name); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	rt.Printer.Printf("✓ Account created for %s\n", email)
	return nil
}
