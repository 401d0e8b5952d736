package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/cache"
	"github.com/desertthunder/songmatch/internal/matching"
	"github.com/desertthunder/songmatch/internal/repositories"
	"github.com/desertthunder/songmatch/internal/services"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies passed through [RunnerOpts] are kept as given; anything missing is
// built from configuration in [Runner.Init].
type Runner struct {
	config     *shared.Config
	configPath string
	services   services.Registry
	db         *sql.DB
	matches    *repositories.MatchRepository
	engine     *tasks.MatchEngine
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	open       func(string) error

	configGiven bool
	loggerGiven bool
	closers     []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Services   []services.Service
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Opener     func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		db:          opts.DB,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		open:        opts.Opener,
		configGiven: opts.Config != nil,
		loggerGiven: opts.Logger != nil,
	}

	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.input == nil {
		r.input = os.Stdin
	}
	if r.open == nil {
		r.open = shared.OpenURL
	}
	if len(opts.Services) > 0 {
		r.services = services.NewRegistry(opts.Services...)
	}

	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range []func(*Runner) *cli.Command{
		matchCommand, batchCommand, scoreCommand, historyCommand, serveCommand, tuiCommand, setupCommand, authCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Init loads configuration and wires services, persistence and the match engine.
//
// It runs before every command. Missing credentials only disable the affected
// platform; commands that need it fail later with AUTH_FAILURE.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" || cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}
	if !r.configGiven {
		if err := r.loadConfig(r.configPath); err != nil {
			return ctx, err
		}
	}

	if !r.loggerGiven {
		logger, closer, err := shared.NewConfiguredLogger(os.Stderr, r.config.Log)
		if err != nil {
			return ctx, err
		}
		r.logger = logger
		r.track(closer)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.services == nil {
		r.services = buildServices(r.config, r.logger)
	}

	if r.db == nil && r.config.Database.RecordHistory {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("History disabled", "error", err)
		} else {
			r.db = db
			r.track(db)
		}
	}

	return ctx, r.buildEngine()
}

// Close releases the database and log file opened by [Runner.Init].
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// SetLogger replaces the logger and rebuilds the engine so every component uses it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.engine != nil {
		if err := r.buildEngine(); err != nil {
			r.logger.Warn("Failed to rebuild engine", "error", err)
		}
	}
}

func (r *Runner) loadConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
	}

	r.config.ApplyEnv(nil)
	return r.config.Validate()
}

func (r *Runner) buildEngine() error {
	m := r.config.Matching
	scorer, err := matching.NewScorer(matching.Weights{Title: m.TitleWeight, Artist: m.ArtistWeight})
	if err != nil {
		return err
	}

	resolver := tasks.NewResolver(
		tasks.WithScorer(scorer),
		tasks.WithThreshold(m.Threshold),
		tasks.WithResolverLogger(r.logger),
	)
	results := cache.New(cache.WithPolicy(cache.Policy{
		CacheFailures: r.config.Cache.CacheFailures,
		NegativeTTL:   r.config.Cache.NegativeTTL,
	}))

	opts := []tasks.EngineOption{
		tasks.WithResolver(resolver),
		tasks.WithCache(results),
		tasks.WithLogger(r.logger),
	}
	if r.db != nil {
		r.matches = repositories.NewMatchRepository(r.db)
		opts = append(opts,
			tasks.WithTrackCacher(repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(r.db))),
			tasks.WithHistory(repositories.NewHistoryAdapter(r.matches)),
		)
	}

	r.engine = tasks.NewMatchEngine(r.services, opts...)
	return nil
}

func (r *Runner) track(c io.Closer) {
	if c != nil {
		r.closers = append(r.closers, c)
	}
}

// buildServices creates every platform service the configuration has credentials for.
func buildServices(cfg *shared.Config, logger *log.Logger) services.Registry {
	var svcs []services.Service

	if sp, err := services.NewSpotifyService(cfg.Credentials.Spotify); err != nil {
		logger.Debug("Spotify disabled", "error", err)
	} else {
		svcs = append(svcs, sp)
	}

	if am, err := services.NewAppleMusicService(cfg.Credentials.AppleMusic); err != nil {
		logger.Debug("Apple Music disabled", "error", err)
	} else {
		svcs = append(svcs, am)
	}

	return services.NewRegistry(svcs...)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
