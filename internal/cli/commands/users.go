package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/forms"
	"github.com/llmadmin-dev/llmadmin/internal/cli/output"
	"github.com/llmadmin-dev/llmadmin/internal/cli/prompt"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

// userTable renders users as rows
type userTable []client.User

func (t userTable) Headers() []string {
	return []string{"ID", "Name", "Email", "Role", "Created"}
}

func (t userTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, u := range t {
		rows[i] = []string{u.ID, u.Name, u.Email, u.Role, u.CreatedAt}
	}
	return rows
}

// NewUsersCmd creates the users command group
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersGetCmd())
	cmd.AddCommand(newUsersCreateCmd())
	cmd.AddCommand(newUsersUpdateCmd())
	cmd.AddCommand(newUsersDeleteCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	var params client.ListUsersParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			list, err := rt.Client.ListUsers(cmd.Context(), params)
			if err != nil {
				return err
			}
			if len(list.Data) == 0 && rt.Printer.Format() == output.FormatTable {
				rt.Printer.Println("No users found.")
				return nil
			}
			if rt.Printer.Format() != output.FormatTable {
				return rt.Printer.Print(list)
			}
			if err := rt.Printer.Print(userTable(list.Data)); err != nil {
				return err
			}
			if list.TotalPages > 1 {
				rt.Printer.Printf("\nPage %d of %d (%d users)\n", list.Page, list.TotalPages, list.Total)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Users per page")
	cmd.Flags().StringVar(&params.Search, "search", "", "Filter by name or email")

	return cmd
}

func newUsersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: protected(func(cmd *cobra.Command, args []string, rt *Runtime, _ session.Snapshot) error {
			user, err := rt.Client.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.Printer.Print(userTable{*user})
		}),
	}
}

func newUsersCreateCmd() *cobra.Command {
	var req client.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, snap session.Snapshot) error {
			if !snap.User.IsAdmin() {
				return fmt.Errorf("only admins can create users")
			}
			if err := forms.Validate(req); err != nil {
				return err
			}
			user, err := rt.Client.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			rt.Printer.Printf("✓ Created user %s (%s)\n", user.Email, user.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&req.Role, "role", "user", "Role (admin or user)")

	return cmd
}

func newUsersUpdateCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user",
		Long: `Update a user. Fields without a flag keep their current value; the
password only changes when --password is given.`,
		Args: cobra.ExactArgs(1),
		RunE: protected(func(cmd *cobra.Command, args []string, rt *Runtime, snap session.Snapshot) error {
			if !snap.User.IsAdmin() {
				return fmt.Errorf("only admins can update users")
			}
			current, err := rt.Client.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			req := client.UpdateUserRequest{Name: current.Name, Email: current.Email, Role: current.Role}
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.Name = name
			}
			if flags.Changed("email") {
				req.Email = email
			}
			if flags.Changed("role") {
				req.Role = role
			}
			if flags.Changed("password") {
				req.Password = password
			}
			if err := forms.Validate(req); err != nil {
				return err
			}

			user, err := rt.Client.UpdateUser(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			rt.Printer.Printf("✓ Updated user %s (%s)\n", user.Email, user.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	cmd.Flags().StringVar(&role, "role", "", "Role (admin or user)")

	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: protected(func(cmd *cobra.Command, args []string, rt *Runtime, _ session.Snapshot) error {
			if !force {
				if !prompt.IsInteractive() {
					return fmt.Errorf("refusing to delete without confirmation (use --force)")
				}
				ok, err := prompt.Confirm(fmt.Sprintf("Delete user %s", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					rt.Printer.Println("Aborted.")
					return nil
				}
			}
			if err := rt.Client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			rt.Printer.Printf("✓ Deleted user %s\n", args[0])
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}
