package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session and cached profile",
		Args:  cobra.NoArgs,
		RunE: withApp(loader, func(cmd *cobra.Command, _ []string, app *app) error {
			if err := app.sessions(nil).SignOut(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		}),
	}
}
