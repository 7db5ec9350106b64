package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/ticktask/pkg/credential"
)

const masked = "********"

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration and store secrets",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			if cfg.OAuth.ClientSecret != "" {
				cfg.OAuth.ClientSecret = masked
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var clientSecret bool
	setPassword := &cobra.Command{
		Use:   "set-password",
		Short: "Read a secret from stdin and store it in the keyring",
		Long: `Read the account password (or, with --client-secret, the OAuth client secret)
from the first line of stdin and store it in the system keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, what := credential.KeyPassword, "password"
			if clientSecret {
				key, what = credential.KeyClientSecret, "client secret"
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s: ", what)
			sc := bufio.NewScanner(cmd.InOrStdin())
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return fmt.Errorf("reading %s: %w", what, err)
				}
				return fmt.Errorf("no %s given", what)
			}
			value := strings.TrimSpace(sc.Text())
			if value == "" {
				return fmt.Errorf("no %s given", what)
			}

			store, err := a.openSecrets()
			if err != nil {
				return err
			}
			if err := store.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\nStored %s in the keyring.\n", what)
			return nil
		},
	}
	setPassword.Flags().BoolVar(&clientSecret, "client-secret", false, "store the OAuth client secret instead")

	cmd.AddCommand(show, setPassword)
	return cmd
}
