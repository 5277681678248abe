package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/spf13/cobra"
)

func (a *App) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
			}

			cfg := &config.Config{}
			cfg.LoadDefaults()
			if a.serverAddr != "" {
				cfg.ServerAddr = a.serverAddr
			}
			if a.profile != "" {
				cfg.Profile = a.profile
			}
			if a.timeout > 0 {
				cfg.Timeout = a.timeout
			}

			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func (a *App) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.client.Ping(s.ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func (a *App) registerCommand() *cobra.Command {
	var req rpc.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := reader(cmd)
			var err error

			if req.Username == "" {
				if req.Username, err = GetSimpleText(in, "Username", cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("failed to read username: %w", err)
				}
			}
			if req.Email == "" {
				if req.Email, err = GetSimpleText(in, "Email", cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
			}
			if req.Password == "" {
				pw, err := GetPassword(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				req.Password = string(pw)
				common.WipeByteArray(pw)
			}

			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			user, err := s.client.Register(s.ctx, &req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id=%d, role=%s)\n", user.Username, user.ID, user.Role.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "username")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.MiddleName, "middle-name", "", "middle name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "password (will prompt if not provided)")
	f.Int64Var(&req.CompanyID, "company", 1, "company id")
	f.Int64Var(&req.RoleID, "role", 0, "role id")
	f.BoolVar(&req.IsOwner, "owner", false, "register as company owner")
	f.BoolVar(&req.IsVerified, "verified", false, "mark the account verified")
	return cmd
}

func (a *App) loginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session and store its tokens in the keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = GetSimpleText(reader(cmd), "Username", cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("failed to read username: %w", err)
				}
			}
			if password == "" {
				pw, err := GetPassword(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(pw)
				common.WipeByteArray(pw)
			}

			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			resp, err := s.client.Login(s.ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s. Tokens stored securely.\n", resp.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password (will prompt if not provided)")
	return cmd
}

func (a *App) refreshCommand() *cobra.Command {
	var useAccessToken bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the stored token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			refresh := s.client.Refresh
			if useAccessToken {
				refresh = s.client.RefreshWithAccessToken
			}
			if _, err := refresh(s.ctx); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tokens refreshed.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&useAccessToken, "access-token", false, "locate the session from the stored access token")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close this session and remove stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.client.Logout(s.ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (a *App) sessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.client.Session(s.ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return errors.New("failed to render session")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
