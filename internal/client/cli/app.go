package cli

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/keychain"
	"github.com/spf13/cobra"
)

type App struct {
	configPath string
	serverAddr string
	profile    string
	timeout    time.Duration

	// Factories, replaced in tests.
	newKeychain func(profile string) keychain.Keychain
	newClient   func(addr string, kc keychain.Keychain) (client.Client, error)
}

func NewApp() *App {
	return &App{
		newKeychain: func(profile string) keychain.Keychain { return keychain.NewSystem(profile) },
		newClient: func(addr string, kc keychain.Keychain) (client.Client, error) {
			return client.NewGRPCClient(addr, kc)
		},
	}
}

// RootCommand builds the authctl command tree bound to a.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Manage sessions on a sessionkeeper server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.sessionkeeper/authctl.yaml)")
	pf.StringVarP(&a.serverAddr, "server", "a", "", "server address host:port")
	pf.StringVar(&a.profile, "profile", "", "keychain profile")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-command timeout")

	root.AddCommand(
		a.initCommand(),
		a.pingCommand(),
		a.registerCommand(),
		a.loginCommand(),
		a.refreshCommand(),
		a.logoutCommand(),
		a.sessionCommand(),
	)
	return root
}

// config loads the file and applies the root flags on top.
func (a *App) config() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.serverAddr != "" {
		cfg.ServerAddr = a.serverAddr
	}
	if a.profile != "" {
		cfg.Profile = a.profile
	}
	if a.timeout > 0 {
		cfg.Timeout = a.timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is everything one command invocation needs.
type session struct {
	client client.Client
	ctx    context.Context
	close  func()
}

func (a *App) connect(cmd *cobra.Command) (*session, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	kc := a.newKeychain(cfg.Profile)
	c, err := a.newClient(cfg.ServerAddr, kc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	return &session{
		client: c,
		ctx:    ctx,
		close: func() {
			cancel()
			_ = c.Close()
		},
	}, nil
}

func reader(cmd *cobra.Command) *bufio.Reader {
	return bufio.NewReader(cmd.InOrStdin())
}
