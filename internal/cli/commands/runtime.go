package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/config"
	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
	"github.com/llmadmin-dev/llmadmin/internal/cli/guard"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
	"github.com/llmadmin-dev/llmadmin/internal/cli/output"
	"github.com/llmadmin-dev/llmadmin/internal/cli/prompt"
	"github.com/llmadmin-dev/llmadmin/internal/cli/provider"
	"github.com/llmadmin-dev/llmadmin/internal/cli/serverselect"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
	"github.com/llmadmin-dev/llmadmin/internal/cli/userconfig"
	appconfig "github.com/llmadmin-dev/llmadmin/internal/config"
	"github.com/llmadmin-dev/llmadmin/internal/logger"
)

// GlobalOptions are the persistent flags of the root command
type GlobalOptions struct {
	Server  string
	Output  string
	Verbose bool
}

// Runtime is everything a command needs to talk to one server
type Runtime struct {
	Server   config.Server
	Store    *credentials.Store
	Client   *client.Client
	Provider *provider.Provider
	Guard    *guard.Guard
	Printer  *output.Printer
	Logger   zerolog.Logger
}

type runtimeKey struct{}

// WithRuntime attaches rt, and its provider, to ctx
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	ctx = provider.WithProvider(ctx, rt.Provider)
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// Close unmounts the session so nothing in flight can write to it afterwards.
// Safe to call more than once.
func (rt *Runtime) Close() {
	rt.Provider.Unmount()
}

// CloseRuntime closes the runtime attached to ctx, if there is one
func CloseRuntime(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rt, ok := ctx.Value(runtimeKey{}).(*Runtime); ok {
		rt.Close()
	}
}

func runtimeFrom(cmd *cobra.Command) (*Runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime)
	if !ok {
		return nil, errors.New("command is not connected to a server")
	}
	return rt, nil
}

// Bootstrap loads configuration and wires the credential store, the HTTP
// client, the session and the guard for the selected server.
func Bootstrap(cmd *cobra.Command, opts *GlobalOptions) (*Runtime, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	} else if !cmd.Flags().Changed("verbose") && level == "info" {
		// info-level request logs are noise on a terminal
		level = "warn"
	}
	logger.InitWithWriter(level, "console", cmd.ErrOrStderr())

	server, err := resolveServer(cfg, opts.Server)
	if err != nil {
		return nil, err
	}

	storage, err := newStorage(cfg.Credentials.Backend, server.URL)
	if err != nil {
		return nil, err
	}
	store := credentials.NewStore(storage, logger.Component("credentials"))

	printer, err := newPrinter(cmd.OutOrStdout(), opts.Output)
	if err != nil {
		return nil, err
	}

	navigator := nav.NewTerminal(cmd.ErrOrStderr())
	apiClient := client.New(server.URL, store,
		client.WithTimeout(cfg.API.Timeout),
		client.WithNavigator(navigator),
		client.WithLogger(logger.Component("client")),
	)

	container := session.New(apiClient, store, logger.GetLogger())
	p := provider.New(container, navigator, logger.GetLogger())

	guardOpts := []guard.Option{guard.WithNavigator(navigator)}
	if prompt.IsInteractive() {
		guardOpts = append(guardOpts, guard.WithIndicator(guard.NewTextIndicator(cmd.ErrOrStderr(), "Checking session...")))
	}

	return &Runtime{
		Server:   server,
		Store:    store,
		Client:   apiClient,
		Provider: p,
		Guard:    guard.New(p, guardOpts...),
		Printer:  printer,
		Logger:   logger.Component("cli"),
	}, nil
}

// resolveServer picks the server: an explicit URL, then llmadmin.json,
// then LLMADMIN_API_URL.
func resolveServer(cfg *appconfig.Config, flag string) (config.Server, error) {
	if strings.HasPrefix(flag, "http://") || strings.HasPrefix(flag, "https://") {
		s := config.Server{URL: config.NormalizeURL(flag), Alias: "flag"}
		return s, s.Validate()
	}

	projectConfig, err := config.LoadFromCurrentDir()
	if err != nil {
		if flag != "" {
			return config.Server{}, fmt.Errorf("failed to load config: %w\nRun 'llmadmin init <url>' to create a configuration file", err)
		}
		s := config.Server{URL: cfg.API.URL, Alias: "env"}
		return s, s.Validate()
	}

	server, err := serverselect.ResolveServer(projectConfig, flag)
	if err != nil {
		return config.Server{}, err
	}
	return *server, server.Validate()
}

func newStorage(backend, serverURL string) (credentials.Storage, error) {
	switch backend {
	case appconfig.BackendFile:
		return credentials.NewFileStorage(serverURL)
	case appconfig.BackendMemory:
		return credentials.NewMemoryStorage(), nil
	default:
		ks := credentials.NewKeyringStorage(serverURL)
		if ks.Available() {
			return ks, nil
		}
		log := logger.Component("credentials")
		log.Warn().
			Msg("OS keyring unavailable, storing credentials in a file instead (set LLMADMIN_CREDENTIAL_BACKEND=file to skip the keyring)")
		return credentials.NewFileStorage(serverURL)
	}
}

func newPrinter(out io.Writer, flag string) (*output.Printer, error) {
	if flag == "" {
		if uc, err := userconfig.Load(); err == nil {
			flag = uc.Output
		}
	}
	format, err := output.ParseFormat(flag)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(out, format), nil
}

// protected runs fn behind the auth guard
func protected(fn func(cmd *cobra.Command, args []string, rt *Runtime, snap session.Snapshot) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		return rt.Guard.Wrap(func(cmd *cobra.Command, args []string, snap session.Snapshot) error {
			return fn(cmd, args, rt, snap)
		})(cmd, args)
	}
}
