package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/output"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

type groupTable []client.Group

func (t groupTable) Headers() []string {
	return []string{"ID", "Name", "Members", "Description"}
}

func (t groupTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, g := range t {
		rows[i] = []string{g.ID, g.Name, strconv.Itoa(g.MembersCount), g.Description}
	}
	return rows
}

type memberTable []client.GroupMember

func (t memberTable) Headers() []string {
	return []string{"User", "Role", "Added"}
}

func (t memberTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, m := range t {
		rows[i] = []string{m.UserID, m.Role, m.AddedAt}
	}
	return rows
}

// NewGroupsCmd creates the groups command group
func NewGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Inspect permission groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List groups",
		Args:    cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			groups, err := rt.Client.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 && rt.Printer.Format() == output.FormatTable {
				rt.Printer.Println("No groups found.")
				return nil
			}
			return rt.Printer.Print(groupTable(groups))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "members <group-id>",
		Short: "List the members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: protected(func(cmd *cobra.Command, args []string, rt *Runtime, _ session.Snapshot) error {
			group, err := rt.Client.GetGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			members, err := rt.Client.ListGroupMembers(cmd.Context(), group.ID)
			if err != nil {
				return err
			}
			if rt.Printer.Format() == output.FormatTable {
				rt.Printer.Printf("Members of %s:\n\n", group.Name)
			}
			return rt.Printer.Print(memberTable(members))
		}),
	})

	return cmd
}
