package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/stylelab/platform/internal/client/router"
	"github.com/stylelab/platform/internal/client/session"
	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/pkg/logger"
)

var (
	logLevel string
	name     string
	email    string
	password string
)

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:   "sessionctl",
	Short: "Sign in to StyleLab from the command line",
	Long: `sessionctl drives a StyleLab session from a terminal.

The API and frontend locations come from API_URL and FRONTEND_URL; the access
token is kept under TOKEN_DIR (relative paths resolve against the home
directory).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error, off)")

	registerCmd.Flags().StringVar(&name, "name", "", "full name (required)")
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&email, "email", "", "account e-mail (required)")
		c.Flags().StringVar(&password, "password", "", "account password (required)")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	_ = registerCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(loginCmd, registerCmd, whoamiCmd, logoutCmd, openCmd)
}

type app struct {
	cfg    session.Config
	client *session.Client
	routes *router.Router
	log    zerolog.Logger
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := session.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.Init(logger.Options{Level: logLevel, Pretty: true, Output: os.Stderr, Service: "sessionctl"})

	dir, err := tokenDir(cfg.TokenDir)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(session.NewFileStorage(afero.NewOsFs(), dir), logger.Component("session"))
	store.Subscribe(func(m session.Mutation, st session.State) {
		log.Debug().Str("mutation", m.Name()).Bool("authenticated", st.IsAuthenticated).Msg("session changed")
	})

	routes, err := router.NewDefault(cfg.FrontendURL)
	if err != nil {
		return nil, fmt.Errorf("frontend url: %w", err)
	}
	return &app{
		cfg:    cfg,
		client: session.NewClient(cfg, store, logger.Component("client")),
		routes: routes,
		log:    log,
	}, nil
}

func tokenDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve token dir: %w", err)
	}
	return filepath.Join(home, dir), nil
}

// follow resolves a navigation against the route table and reports where the
// user would land.
func (a *app) follow(ctx context.Context, w io.Writer, nav session.Navigation) error {
	if nav.IsZero() {
		return nil
	}
	_, view, err := a.routes.Resolve(ctx, nav.URL)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", nav.URL, err)
	}
	fmt.Fprintf(w, "-> %s (%s)\n", view.Name, nav.URL)
	return nil
}

func apiFailure(err *domain.APIError) error {
	return fmt.Errorf("%s: %s (%d)", err.Area, err.Message, err.StatusCode)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with e-mail and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		nav, apiErr := a.client.Login(cmd.Context(), session.Credentials{Email: email, Password: password})
		if apiErr != nil {
			return apiFailure(apiErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed in")
		return a.follow(cmd.Context(), cmd.OutOrStdout(), nav)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		nav, apiErr := a.client.Register(cmd.Context(), session.RegisterForm{Name: name, Email: email, Password: password})
		if apiErr != nil {
			return apiFailure(apiErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "account created")
		return a.follow(cmd.Context(), cmd.OutOrStdout(), nav)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if !a.client.FetchUser(cmd.Context()) {
			if st := a.client.Store().State(); st.Error != nil {
				return apiFailure(st.Error)
			}
			return errors.New("not signed in")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.client.Store().State().User)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.client.Logout(cmd.Context()); err != nil {
			a.log.Warn().Err(err).Msg("server logout failed; local session cleared")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path-or-url>",
	Short: "Resolve a frontend route",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		rt, view, err := a.routes.Resolve(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		loading := "eager"
		if rt.IsLazy() {
			loading = "lazy"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s view=%s chunk=%q\n", rt.Path, loading, view.Name, view.Chunk)
		return nil
	},
}
