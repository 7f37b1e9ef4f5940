package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/spf13/cobra"
)

func newNewslettersCmd(loader *appLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "newsletters",
		Aliases: []string{"ls"},
		Short:   "List newsletter senders found in your mailbox",
		Args:    cobra.NoArgs,
		RunE: withApp(loader, func(cmd *cobra.Command, _ []string, app *app) error {
			return runNewsletters(cmd, app, asJSON)
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runNewsletters(cmd *cobra.Command, app *app, asJSON bool) error {
	sessions := app.sessions(nil)
	controller := app.newsletterController(sessions)
	defer controller.Teardown()

	mount := func(ctx context.Context) {
		controller.Mount(ctx).Wait()
	}

	if asJSON {
		mount(cmd.Context())
	} else if err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching newsletters...", mount); err != nil {
		return err
	}

	state := controller.State()
	if sessions.State() != domain.SessionAuthenticated {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Not signed in. Run `mailbin login` first.")
	}

	return writeNewslettersOutput(cmd, app, state, asJSON)
}

func writeNewslettersOutput(cmd *cobra.Command, app *app, state domain.ViewState, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	rendered, err := app.newsletterRenderer(state)
	if err != nil {
		return fmt.Errorf("render newsletters: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
