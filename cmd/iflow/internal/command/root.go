// Package command wires the iflow cobra commands.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/invoiceflow/cmd/iflow/internal/view"
	"github.com/MrJamesThe3rd/invoiceflow/internal/client"
	"github.com/MrJamesThe3rd/invoiceflow/internal/config"
	"github.com/MrJamesThe3rd/invoiceflow/internal/logger"
)

const Version = "InvoiceFlow CLI v2.0.4"

var errNotLoggedIn = errors.New("please login first using: iflow login")

// env is what every command runs against. The token is read once at start
// and handed to the client explicitly.
type env struct {
	cfg     *config.CLI
	api     *client.Client
	session SessionFile
	token   string
	outDir  string
	log     zerolog.Logger
}

func NewRoot() *cobra.Command {
	e := &env{}

	var (
		apiURL      string
		sessionPath string
		logLevel    string
	)

	root := &cobra.Command{
		Use:           "iflow",
		Short:         "InvoiceFlow terminal client",
		Long:          "iflow generates and edits invoices against an InvoiceFlow server.\nRun without a subcommand for the interactive mode.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLI()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("api") {
				apiURL = cfg.APIURL
			}

			if !cmd.Flags().Changed("log-level") {
				logLevel = cfg.LogLevel
			}

			if !cmd.Flags().Changed("out") {
				e.outDir = cfg.OutDir
			}

			if sessionPath == "" {
				sessionPath = cfg.SessionFile
			}

			if sessionPath == "" {
				if sessionPath, err = DefaultSessionPath(); err != nil {
					return err
				}
			}

			if e.log, err = logger.Setup(logger.Config{Level: logLevel, Format: "console"}); err != nil {
				return err
			}

			e.cfg = cfg
			e.api = client.New(apiURL)
			e.session = SessionFile{Path: sessionPath}

			e.token, err = e.session.Load()

			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.token == "" {
				if err := e.login(cmd.Context(), "", ""); err != nil {
					return err
				}
			}

			return view.Run(view.API{Client: e.api, Token: e.token}, e.outDir)
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default $IFLOW_API_URL or http://localhost:8080)")
	root.PersistentFlags().StringVar(&sessionPath, "session", "", "session token file (default $HOME/.iflow/session)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default warn)")
	root.PersistentFlags().StringVarP(&e.outDir, "out", "o", ".", "directory for generated PDFs")

	root.AddCommand(
		newLoginCmd(e),
		newSignUpCmd(e),
		newLogoutCmd(e),
		newGenCmd(e),
		newEditCmd(e),
		newSummaryCmd(e),
		newVersionCmd(),
	)

	return root
}

// Execute runs the root command with a context cancelled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRoot()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, view.ErrorStyle.Render("Error: "+err.Error()))
		return err
	}

	return nil
}

func (e *env) requireSession() error {
	if e.token == "" {
		return errNotLoggedIn
	}

	return nil
}

// sessionError turns a rejected token into a login hint and forgets it.
func (e *env) sessionError(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		if clearErr := e.session.Clear(); clearErr != nil {
			e.log.Warn().Err(clearErr).Msg("clearing stale session")
		}

		return fmt.Errorf("session expired: %w", errNotLoggedIn)
	}

	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		// Skip config and session loading.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
