package cli

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/app"
	"github.com/artpar/postbox/internal/config"
	"github.com/artpar/postbox/internal/storage"
)

// Option configures the command tree. Options exist for embedding and tests;
// the binary uses none.
type Option func(*options)

type options struct {
	config    *config.Config
	kv        storage.KV
	in        io.Reader
	transport http.RoundTripper
	files     app.Files
}

// WithConfig skips config file loading and uses cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithKV stores data in kv instead of the configured backend. The caller
// keeps ownership of kv.
func WithKV(kv storage.KV) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithInput sets where confirmation answers are read from.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.in = r
	}
}

// WithTransport sets the HTTP transport used for sends.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithFiles sets the filesystem used by import, export and restore.
func WithFiles(f app.Files) Option {
	return func(o *options) {
		o.files = f
	}
}

// NewRootCommand creates the root command.
func NewRootCommand(version string, opts ...Option) *cobra.Command {
	cmd, _ := newRoot(version, opts...)
	return cmd
}

// Execute runs the command tree with args and releases storage afterwards,
// whether or not the command succeeded.
func Execute(ctx context.Context, version string, args []string, opts ...Option) error {
	cmd, s := newRoot(version, opts...)
	defer s.close()

	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRoot(version string, opts ...Option) (*cobra.Command, *session) {
	o := &options{in: os.Stdin}
	for _, opt := range opts {
		opt(o)
	}
	s := &session{opts: o}

	cmd := &cobra.Command{
		Use:   "postbox",
		Short: "postbox - an HTTP client for the command line",
		Long: `postbox keeps collections of HTTP requests, environments of variables and a
history of responses, and sends requests from the command line.

Examples:
  postbox send GET https://api.example.com/users
  postbox send --request "My API Collection/Get Users" --query "[0].name"
  postbox env create dev --var baseUrl=https://dev.example.com
  postbox import collection.postman_collection.json
  postbox export backup.json`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.noColor {
				color.NoColor = true
			}
			return s.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "Config file (default: ./config.yaml or ~/.postbox/config.yaml)")
	flags.StringVar(&s.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&s.driver, "storage", "", "Storage driver: sqlite or memory")
	flags.BoolVarP(&s.assumeYes, "yes", "y", false, "Answer yes to every confirmation")
	flags.BoolVar(&s.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		NewSendCommand(s),
		NewCurlCommand(s),
		NewRunCommand(s),
		newCollectionCommand(s),
		newRequestCommand(s),
		newHistoryCommand(s),
		newEnvCommand(s),
		newImportCommand(s),
		newExportCommand(s),
		newRestoreCommand(s),
		newUsageCommand(s),
		newSettingsCommand(s),
		newResetCommand(s),
	)

	return cmd, s
}
