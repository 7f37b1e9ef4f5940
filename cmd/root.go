package cmd

import (
	"sync"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	configFile string
	debug      bool
}

// appLoader wires the application on first use so persistent flags are already parsed.
type appLoader struct {
	opts *rootOptions
	once sync.Once
	app  *app
	err  error
}

func (l *appLoader) get() (*app, error) {
	l.once.Do(func() {
		l.app, l.err = wireApp(*l.opts)
	})
	return l.app, l.err
}

func (l *appLoader) close() {
	if l.app != nil {
		l.app.close()
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	loader := &appLoader{opts: opts}

	rootCmd := &cobra.Command{
		Use:           "mailbin",
		Short:         "mailbin: review and unsubscribe from newsletters in your Gmail inbox",
		Long:          "mailbin signs you in with Google, keeps a signed session on this machine, and lists the newsletter senders the mailbin backend found in your mailbox together with their unsubscribe links.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			loader.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default ~/.mailbin/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newLoginCmd(loader),
		newLogoutCmd(loader),
		newStatusCmd(loader),
		newNewslettersCmd(loader),
	)

	return rootCmd
}

// withApp adapts a RunE that needs the wired application.
func withApp(loader *appLoader, run func(cmd *cobra.Command, args []string, app *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := loader.get()
		if err != nil {
			return err
		}
		return run(cmd, args, app)
	}
}
