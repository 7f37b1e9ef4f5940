package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/bnema/mailbin/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the mailbin configuration",
	}

	cmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts))

	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var overwrite bool
	var clientID string
	var clientSecret string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file with a fresh session signing secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}

			path := opts.configFile
			if path == "" {
				path = config.DefaultFile(homeDir)
			}

			cfg := config.Defaults(homeDir)
			secret, err := newSigningSecret()
			if err != nil {
				return err
			}
			cfg.Session.Secret = secret
			cfg.OAuth.ClientID = clientID
			cfg.OAuth.ClientSecret = clientSecret

			if err := config.WriteFile(path, cfg, overwrite); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&overwrite, "force", false, "Replace an existing config file")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Google OAuth client secret")

	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}

			cfg, err := config.Load(viper.New(), homeDir, opts.configFile)
			if err != nil {
				return err
			}

			data, err := config.Marshal(cfg.Redacted())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.File != "" {
				_, _ = fmt.Fprintf(out, "# file: %s\n", cfg.File)
			} else {
				_, _ = fmt.Fprintln(out, "# file: none (defaults and environment)")
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newSigningSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
