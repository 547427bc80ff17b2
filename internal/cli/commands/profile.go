package commands

import (
	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/forms"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

// NewProfileCmd creates the profile command group
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your own account",
	}

	var update client.ProfileUpdate
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name or email",
		Args:  cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			if err := forms.Validate(update); err != nil {
				return err
			}
			user, err := rt.Client.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}

			// refresh the session so the cached snapshot shows the new identity
			rt.Provider.CheckAuth(cmd.Context())

			rt.Printer.Println("✓ Profile updated")
			rt.Printer.Printf("  User: %s (%s)\n", user.Name, user.Email)
			return nil
		}),
	}
	updateCmd.Flags().StringVar(&update.Name, "name", "", "New display name")
	updateCmd.Flags().StringVar(&update.Email, "email", "", "New email address")
	cmd.AddCommand(updateCmd)

	return cmd
}
