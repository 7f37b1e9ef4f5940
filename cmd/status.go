package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/mailbin/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newStatusCmd(loader *appLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session and signed-in account",
		Args:  cobra.NoArgs,
		RunE: withApp(loader, func(cmd *cobra.Command, _ []string, app *app) error {
			status := app.sessions(nil).Status(cmd.Context())

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}

			rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
