package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"github.com/spf13/cobra"
)

const profileWaitTimeout = 10 * time.Second

type loginOptions struct {
	force     bool
	noBrowser bool
}

func newLoginCmd(loader *appLoader) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google (browser flow by default)",
		Args:  cobra.NoArgs,
		RunE: withApp(loader, func(cmd *cobra.Command, _ []string, app *app) error {
			return runLogin(cmd, app, app.browserBroker(cmd.OutOrStdout(), !opts.noBrowser), opts)
		}),
	}

	cmd.PersistentFlags().BoolVar(&opts.force, "force", false, "Sign in again even if a valid session exists")
	cmd.PersistentFlags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the consent URL without opening a browser")

	cmd.AddCommand(newLoginBrowserCmd(loader, opts), newLoginDeviceCmd(loader, opts))

	return cmd
}

func newLoginBrowserCmd(loader *appLoader, opts *loginOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browser",
		Short: "Sign in through a browser consent screen",
		Args:  cobra.NoArgs,
		RunE: withApp(loader, func(cmd *cobra.Command, _ []string, app *app) error {
			return runLogin(cmd, app, app.browserBroker(cmd.OutOrStdout(), !opts.noBrowser), opts)
		}),
	}
}

func newLoginDeviceCmd(loader *appLoader, opts *loginOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Sign in by entering a code on another device",
		Args:  cobra.NoArgs,
		RunE: withApp(loader, func(cmd *cobra.Command, _ []string, app *app) error {
			return runLogin(cmd, app, app.deviceBroker(cmd.OutOrStdout()), opts)
		}),
	}
}

func runLogin(cmd *cobra.Command, app *app, broker ports.CredentialBroker, opts *loginOptions) error {
	sessions := app.sessions(broker)
	out := cmd.OutOrStdout()

	if !opts.force {
		if token := sessions.ResolveToken(cmd.Context()); !token.IsZero() {
			_, _ = fmt.Fprintln(out, "Already signed in. Use --force to sign in again.")
			return nil
		}
	}

	result, err := sessions.SignIn(cmd.Context())
	if errors.Is(err, domain.ErrConsentCancelled) {
		_, _ = fmt.Fprintln(out, "Sign-in cancelled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), profileWaitTimeout)
	defer cancel()

	if profile := result.Profile(ctx); profile != nil {
		_, _ = fmt.Fprintf(out, "Signed in as %s\n", profile.DisplayName())
		return nil
	}

	_, _ = fmt.Fprintln(out, "Signed in.")
	return nil
}
