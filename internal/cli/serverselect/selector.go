package serverselect

import (
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/llmadmin-dev/llmadmin/internal/cli/config"
	"github.com/llmadmin-dev/llmadmin/internal/cli/userconfig"
)

// promptSelection is swapped out in tests
var promptSelection = PromptServerSelection

// warnings go to stderr so they never mix with command output
var warnOut io.Writer = os.Stderr

// ResolveServer determines which server to use based on the following priority:
// 1. If serverFlag is provided, use the server with that URL or alias
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func ResolveServer(projectConfig *config.Config, serverFlag string) (*config.Server, error) {
	if serverFlag != "" {
		return projectConfig.GetServer(serverFlag)
	}

	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURL(selectedURL)
		if err == nil {
			return server, nil
		}
		// selection points at a server this project no longer lists
		_ = userconfig.SetSelectedServer("")
	}

	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		remember(server)
		return server, nil
	}

	server, err := promptSelection(projectConfig)
	if err != nil {
		return nil, err
	}
	remember(server)
	return server, nil
}

func remember(server *config.Server) {
	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		fmt.Fprintf(warnOut, "Warning: failed to save selected server: %v\n", err)
	}
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}

	prompt := promptui.Select{
		Label: "Select a server",
		Items: options,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label }}",
			Selected: "{{ .Label | green }}",
		},
		Size: 10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}
