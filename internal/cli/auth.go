package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/quickcart/internal/storefront"
)

type loginOptions struct {
	password string
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				name, err := app.Login(ctx, args[0], opts.password)
				if err != nil {
					return err
				}
				st := whoami(app.Session())
				st.Username = name
				return f.Emit(st, func(w io.Writer) {
					fmt.Fprintf(w, "Welcome, %s!\n", name)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "account password")
	return cmd
}

type registerOptions struct {
	email    string
	password string
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &registerOptions{}
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Long:  "Create an account. Registering does not log you in.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				msg, err := app.Register(ctx, args[0], opts.email, opts.password)
				if err != nil {
					return err
				}
				out := messageOutput{Message: msg}
				return f.Emit(out, func(w io.Writer) { renderMessage(w, out) })
			})
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "email address")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "account password")
	return cmd
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget this client's session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				if err := app.Logout(ctx); err != nil {
					return err
				}
				out := messageOutput{Message: "Logged out."}
				return f.Emit(out, func(w io.Writer) { renderMessage(w, out) })
			})
		},
	}
}

func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the login and session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				out := whoami(app.Session())
				return f.Emit(out, func(w io.Writer) { renderWhoami(w, out) })
			})
		},
	}
}
