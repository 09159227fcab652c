package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/app"
	"github.com/artpar/postbox/internal/config"
	"github.com/artpar/postbox/internal/cookies"
	"github.com/artpar/postbox/internal/logging"
	httpclient "github.com/artpar/postbox/internal/protocol/http"
	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/storage/memory"
	"github.com/artpar/postbox/internal/storage/sqlite"
	"github.com/artpar/postbox/internal/store"
)

// session holds what a command invocation works on. It is opened before the
// command runs.
type session struct {
	opts *options

	configPath string
	logLevel   string
	driver     string
	assumeYes  bool
	noColor    bool

	cfg      *config.Config
	logger   *slog.Logger
	kv       storage.KV
	ownKV    bool
	prompter *prompter
	app      *app.App
}

func (s *session) open(cmd *cobra.Command) error {
	if s.app != nil {
		return nil
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	s.cfg = cfg

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	s.logger = logger

	if err := s.openKV(); err != nil {
		return err
	}

	s.prompter = newPrompter(s.opts.in, cmd.ErrOrStderr(), s.assumeYes)
	manager := storage.NewManager(s.kv,
		storage.WithLogger(logger),
		storage.WithNotifier(s.prompter),
		storage.WithConfirmer(s.prompter),
		storage.WithCapacity(cfg.Storage.QuotaBytes),
	)

	client, err := s.newClient(cmd.Context())
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	s.app = app.New(manager, client,
		app.WithPrompter(s.prompter),
		app.WithLogger(logger),
		app.WithFiles(s.opts.files),
		app.WithSampleCollection(cfg.SeedSample),
		app.WithErrorHandler(func(domain store.Domain, err error) {
			warnColor.Fprintf(errOut, "warning: could not save %s: %v\n", domain, err)
		}),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.app.Load(ctx)
}

func (s *session) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if s.opts.config != nil {
		copied := *s.opts.config
		cfg = &copied
	} else {
		loaded, err := config.Load(s.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s.logLevel != "" {
		cfg.Log.Level = strings.ToLower(s.logLevel)
	}
	if s.driver != "" {
		cfg.Storage.Driver = strings.ToLower(s.driver)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *session) openKV() error {
	if s.opts.kv != nil {
		s.kv = s.opts.kv
		return nil
	}

	switch s.cfg.Storage.Driver {
	case config.DriverMemory:
		s.kv = memory.New(s.cfg.Storage.QuotaBytes)
	default:
		if err := os.MkdirAll(filepath.Dir(s.cfg.Storage.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		kv, err := sqlite.New(s.cfg.Storage.Path, s.cfg.Storage.QuotaBytes)
		if err != nil {
			return err
		}
		s.kv = kv
	}
	s.ownKV = true
	return nil
}

func (s *session) newClient(ctx context.Context) (*httpclient.Client, error) {
	opts := []httpclient.Option{httpclient.WithLogger(s.logger)}
	if s.cfg.HTTP.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(s.cfg.HTTP.Timeout))
	}
	if !s.cfg.HTTP.FollowRedirects {
		opts = append(opts, httpclient.WithNoRedirects())
	}
	if s.opts.transport != nil {
		opts = append(opts, httpclient.WithTransport(s.opts.transport))
	}
	if s.cfg.HTTP.Cookies {
		if ctx == nil {
			ctx = context.Background()
		}
		jar, err := cookies.NewPersistentJar(ctx, cookies.NewKVStore(s.kv), cookies.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load cookies: %w", err)
		}
		opts = append(opts, httpclient.WithCookieJar(jar))
	}
	return httpclient.NewClient(opts...), nil
}

// close waits for the app and releases storage it opened. It is safe to
// call more than once.
func (s *session) close() error {
	var errs []error
	if s.app != nil {
		errs = append(errs, s.app.Close())
		s.app = nil
	}
	if s.kv != nil && s.ownKV {
		errs = append(errs, s.kv.Close())
	}
	s.kv = nil
	return errors.Join(errs...)
}

// prompter asks on the terminal. It also shows storage warnings.
type prompter struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newPrompter(in io.Reader, out io.Writer, assumeYes bool) *prompter {
	if in == nil {
		in = strings.NewReader("")
	}
	return &prompter{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (p *prompter) Confirm(_ context.Context, message string) bool {
	if p.assumeYes {
		return true
	}
	warnColor.Fprintf(p.out, "%s [y/N]: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (p *prompter) Warn(message string) {
	warnColor.Fprintf(p.out, "warning: %s\n", message)
}
