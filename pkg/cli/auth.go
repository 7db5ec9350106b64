package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd(a *app) *cobra.Command {
	var printURL bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize the OAuth application and cache the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.OAuth.ClientID == "" {
				return fmt.Errorf("oauth.client_id is not configured")
			}
			o, err := a.oauth()
			if err != nil {
				return err
			}
			if printURL {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), o.AuthURL())
				return err
			}

			rec, err := o.Reauthorize(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{
				"cache":      a.cfg.OAuth.CachePath,
				"scope":      rec.Scope,
				"expires_at": rec.ReadableExpireTime,
			})
		},
	}
	cmd.Flags().BoolVar(&printURL, "url", false, "only print the authorization URL")
	return cmd
}
