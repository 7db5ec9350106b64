// Package cli is the ticktask command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/ticktask/pkg/auth"
	"github.com/harrisonrobin/ticktask/pkg/config"
	"github.com/harrisonrobin/ticktask/pkg/credential"
	"github.com/harrisonrobin/ticktask/pkg/logger"
	"github.com/harrisonrobin/ticktask/pkg/ticktick"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	debug      bool
	output     string

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time

	openSecrets func() (*credential.Store, error)
	clientOpts  []ticktick.Option
	authOpts    []auth.Option
}

func newApp() *app {
	return &app{
		now:         time.Now,
		openSecrets: credential.Open,
	}
}

// Execute runs the command line against os.Args.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(newApp())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ticktask",
		Short: "Manage TickTick projects, tasks, tags and habits",
		Long: `ticktask talks to the TickTick web API with your account credentials and
keeps a local mirror of projects, folders, tasks and tags for the length of a command.

Habit and open API commands also need an OAuth application (oauth.client_id in the
config file) and run the browser authorization flow the first time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync(a.logger)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/ticktask/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "", "output format: json or yaml")

	root.AddCommand(
		newAuthCmd(a),
		newSyncCmd(a),
		newProjectCmd(a),
		newTaskCmd(a),
		newTagCmd(a),
		newHabitCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = a.debug
	}
	if a.output != "" {
		if a.output != "json" && a.output != "yaml" {
			return fmt.Errorf("invalid output format %q (must be 'json' or 'yaml')", a.output)
		}
		cfg.Output = a.output
	}
	a.cfg = cfg

	if a.logger == nil {
		newLogger := logger.NewProductionLogger
		if cfg.Debug {
			newLogger = logger.NewDevelopmentLogger
		}
		l, err := newLogger(cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		a.logger = l
	}
	return nil
}

// secret returns value when set, otherwise the keyring entry under key. A
// missing entry yields "".
func (a *app) secret(value, key string) (string, error) {
	if value != "" {
		return value, nil
	}
	store, err := a.openSecrets()
	if err != nil {
		return "", err
	}
	v, _, err := store.Lookup(key)
	return v, err
}

func (a *app) oauth() (*auth.OAuth2, error) {
	secret, err := a.secret(a.cfg.OAuth.ClientSecret, credential.KeyClientSecret)
	if err != nil {
		return nil, err
	}
	o := a.cfg.OAuth
	opts := append([]auth.Option{auth.WithLogger(a.logger)}, a.authOpts...)
	return auth.New(auth.Config{
		ClientID:     o.ClientID,
		ClientSecret: secret,
		RedirectURI:  o.RedirectURI,
		Scope:        o.Scope,
		State:        o.State,
		EnvKey:       o.EnvKey,
		CachePath:    o.CachePath,
	}, opts...)
}

// client logs in and syncs. The OAuth token source is attached only when an
// application is configured.
func (a *app) client(ctx context.Context) (*ticktick.Client, error) {
	password, err := a.secret(a.cfg.Password, credential.KeyPassword)
	if err != nil {
		return nil, err
	}
	cfg := ticktick.Config{Username: a.cfg.Username, Password: password}
	if a.cfg.OAuth.ClientID != "" {
		o, err := a.oauth()
		if err != nil {
			return nil, err
		}
		cfg.TokenSource = o
	}

	opts := append([]ticktick.Option{ticktick.WithLogger(a.logger)}, a.clientOpts...)
	c, err := ticktick.New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("session ready",
		zap.String("user", a.cfg.Username),
		zap.String("time_zone", c.TimeZone()),
		zap.String("inbox", c.InboxID()))
	return c, nil
}

func (a *app) print(w io.Writer, v any) error {
	return render(w, a.cfg.Output, v)
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the account and print a summary of the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			s := c.State()
			return a.print(cmd.OutOrStdout(), map[string]any{
				"time_zone":       c.TimeZone(),
				"inbox_id":        c.InboxID(),
				"projects":        len(s.Projects),
				"project_folders": len(s.ProjectFolders),
				"tasks":           len(s.Tasks),
				"tags":            len(s.Tags),
			})
		},
	}
}
