package command

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.login(cmd.Context(), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")

	return cmd
}

func newSignUpCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var email, password, name string

			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Display name").Value(&name),
				huh.NewInput().Title("Email").Value(&email).Validate(validateEmail),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).Validate(required("password")),
			)).WithWidth(45).WithShowHelp(false)

			if err := form.RunWithContext(cmd.Context()); err != nil {
				return err
			}

			auth, err := e.api.SignUp(cmd.Context(), email, password, name)
			if err != nil {
				return fmt.Errorf("sign-up failed: %w", err)
			}

			if err := e.session.Save(auth.Token); err != nil {
				return err
			}

			e.token = auth.Token
			fmt.Fprintf(cmd.OutOrStdout(), "Account created. Welcome, %s.\n", auth.User.DisplayName)

			return nil
		},
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.token != "" {
				if err := e.api.Logout(cmd.Context(), e.token); err != nil {
					e.log.Warn().Err(err).Msg("server logout failed")
				}
			}

			if err := e.session.Clear(); err != nil {
				return err
			}

			e.token = ""
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")

			return nil
		},
	}
}

// login prompts for whatever credentials are missing, then stores the token.
func (e *env) login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email).Validate(validateEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).Validate(required("password")),
		).Title("InvoiceFlow Terminal Login")).WithWidth(45).WithShowHelp(false)

		if err := form.RunWithContext(ctx); err != nil {
			return err
		}
	}

	auth, err := e.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := e.session.Save(auth.Token); err != nil {
		return err
	}

	e.token = auth.Token
	e.log.Debug().Str("user_id", auth.User.ID).Msg("logged in")
	fmt.Printf("Login successful! Welcome back, %s.\n", auth.User.DisplayName)

	return nil
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("valid email required")
	}

	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}

		return nil
	}
}
