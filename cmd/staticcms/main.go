// Package main is the entry point for the staticcms CLI.
//
// The default command starts the full-screen TUI. Two helper subcommands
// cover headless use: `login` runs the browser OAuth flow from a plain
// terminal, and `sync` commits and pushes an existing working copy without
// opening the interface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"staticcms/internal/auth"
	"staticcms/internal/config"
	"staticcms/internal/gitsync"
	"staticcms/internal/githubapi"
	"staticcms/internal/logging"
	"staticcms/internal/tui"
	"staticcms/internal/tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// app bundles the wired services shared by all commands.
type app struct {
	logger      *logging.AppLogger
	cfg         *config.Config
	coordinator *auth.Coordinator
	api         *githubapi.Client
	engine      *gitsync.Engine
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var application *app

	root := &cobra.Command{
		Use:           "staticcms",
		Short:         "Edit and publish static site content from your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			application, err = bootstrap()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(application)
		},
	}

	root.AddCommand(newLoginCmd(&application))
	root.AddCommand(newSyncCmd(&application))
	return root
}

// bootstrap wires configuration, logging, the GitHub client, the OAuth
// coordinator, and the git engine. The client's token source reads the
// coordinator's in-memory credential, so API calls pick up a sign-in the
// moment it completes.
func bootstrap() (*app, error) {
	logger := logging.NewAppLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	oauthCfg, err := config.LoadOAuth()
	if err != nil {
		return nil, err
	}

	var coordinator *auth.Coordinator
	api := githubapi.NewClient(func() (string, bool) {
		if coordinator == nil {
			return "", false
		}
		cred, ok := coordinator.Credential()
		return cred.AccessToken, ok
	})
	coordinator = auth.NewCoordinator(*oauthCfg, api)

	return &app{
		logger:      logger,
		cfg:         cfg,
		coordinator: coordinator,
		api:         api,
		engine:      gitsync.NewEngine(),
	}, nil
}

func runTUI(a *app) error {
	ctx := helpers.NewUIContext(0, 0, a.cfg, a.logger, a.coordinator, a.api, a.engine)
	program := tea.NewProgram(tui.NewRootModel(ctx), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		a.logger.Error("TUI program failed", "error", err)
		return err
	}
	return nil
}

func newLoginCmd(application **app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with GitHub without starting the TUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application
			ctx, stop := signalContext()
			defer stop()

			fmt.Println("Opening your browser for GitHub authorization...")
			if err := a.coordinator.Authenticate(ctx); err != nil {
				return err
			}

			state := a.coordinator.State()
			if state.Identity != nil {
				fmt.Printf("Signed in as %s\n", state.Identity.Login)
			}
			return nil
		},
	}
}

func newSyncCmd(application **app) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "sync [path]",
		Short: "Commit and push a cloned working copy",
		Long: "Stages every change in the working copy at path (default: current " +
			"directory), commits it, and pushes to origin. Requires a stored " +
			"session from a previous sign-in.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application
			ctx, stop := signalContext()
			defer stop()

			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			if err := a.coordinator.Restore(ctx); err != nil {
				return fmt.Errorf("no stored session, run `staticcms login` first: %w", err)
			}
			cred, ok := a.coordinator.Credential()
			if !ok {
				return fmt.Errorf("no stored session, run `staticcms login` first")
			}

			ws, err := gitsync.Open(path)
			if err != nil {
				return err
			}

			if err := a.engine.CommitAndPush(ctx, ws, message, cred); err != nil {
				return err
			}
			fmt.Println("Published changes to origin.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "Update site content", "commit message")
	return cmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
