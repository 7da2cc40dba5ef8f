package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plstat/internal/repositories"
	"github.com/desertthunder/plstat/internal/services"
	"github.com/desertthunder/plstat/internal/shared"
	"github.com/desertthunder/plstat/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SpinnerFunc shows progress while action runs.
type SpinnerFunc func(ctx context.Context, title string, action func(context.Context) error) error

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       services.Authenticator
	store      services.TokenStore
	db         *sql.DB
	getenv     func(string) string
	logger     *log.Logger
	output     io.Writer
	prompt     io.Writer
	spin       SpinnerFunc
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Authenticator and Store are built from Config on first use when nil.
type RunnerOpts struct {
	Config        *shared.Config
	ConfigPath    string
	Authenticator services.Authenticator
	Store         services.TokenStore
	Getenv        func(string) string
	Logger        *log.Logger
	Output        io.Writer
	Prompt        io.Writer // OAuth instructions, stderr by default
	Spinner       SpinnerFunc
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompt == nil {
		opts.Prompt = os.Stderr
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Spinner == nil {
		opts.Spinner = huhSpinner
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		auth:       opts.Authenticator,
		store:      opts.Store,
		getenv:     opts.Getenv,
		logger:     opts.Logger,
		output:     opts.Output,
		prompt:     opts.Prompt,
		spin:       opts.Spinner,
	}
}

func huhSpinner(ctx context.Context, title string, action func(context.Context) error) error {
	return spinner.New().Title(title).Context(ctx).ActionWithErr(action).Run()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, analyzeCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// load reads the configuration file named by --config and applies the log level.
//
// A missing file keeps the defaults.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// Close releases the token database when one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// tokenStore returns the configured store, opening the sqlite token cache on first use.
func (r *Runner) tokenStore() (services.TokenStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open token cache: %w", err)
	}
	r.db = db
	r.store = repositories.NewTokenRepository(db)
	return r.store, nil
}

func (r *Runner) authenticator() (services.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	store, err := r.tokenStore()
	if err != nil {
		return nil, err
	}

	analysis := r.config.Analysis
	r.auth = services.NewSpotifyAuthenticator(
		services.WithTokenStore(store),
		services.WithAuthLogger(r.logger),
		services.WithPrompt(r.prompt),
		services.WithAuthTimeout(r.config.Server.AuthTimeout()),
		services.WithServiceOptions(
			services.WithRateLimit(analysis.RequestsPerSecond),
			services.WithRetry(analysis.RetryAttempts, 500*time.Millisecond),
			services.WithServiceLogger(r.logger),
		),
	)
	return r.auth, nil
}

// session loads credentials from the environment and authenticates.
func (r *Runner) session(ctx context.Context) (services.Session, error) {
	creds, err := shared.LoadCredentials(r.getenv)
	if err != nil {
		return nil, err
	}

	auth, err := r.authenticator()
	if err != nil {
		return nil, err
	}

	session, err := auth.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *Runner) analyzer(session services.Session) *tasks.Analyzer {
	return tasks.NewAnalyzer(session, r.logger, tasks.Options{
		TopN:             r.config.Analysis.TopN,
		BatchConcurrency: r.config.Analysis.BatchConcurrency,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return r.writeBytes(output)
}

func (r *Runner) writeBytes(output []byte) error {
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
