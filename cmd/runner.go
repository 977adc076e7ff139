package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wavecrest/harmonia/internal/aggregator"
	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/repositories"
	"github.com/wavecrest/harmonia/internal/services"
	"github.com/wavecrest/harmonia/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	agg    *aggregator.Aggregator
	kv     repositories.KV
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Aggregator *aggregator.Aggregator
	KV         repositories.KV
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	if opts.Aggregator == nil {
		config := services.NewConfigClient(opts.Config.Methods.BaseURL, opts.HTTPClient)
		chain := services.NewProxyChain(opts.Config.Proxy.Custom, opts.HTTPClient, opts.Logger)
		exec := services.NewExecutor(config, chain, opts.Logger)

		opts.Aggregator = aggregator.New(aggregator.Options{
			Executor: exec,
			Config:   config,
			Resolvers: []services.Resolver{
				services.NewNeteaseResolver(chain),
				services.NewQQResolver(chain),
				services.NewKuwoResolver(chain),
			},
			Logger: opts.Logger,
		})
	}

	return &Runner{
		config: opts.Config,
		agg:    opts.Aggregator,
		kv:     opts.KV,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, chartCommand, lyricCommand, resolveCommand, favoritesCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openKV returns the injected store or opens the configured sqlite database.
// The caller owns the returned closer only when it was opened here.
func (r *Runner) openKV() (repositories.KV, func(), error) {
	if r.kv != nil {
		return r.kv, func() {}, nil
	}
	kv, err := repositories.OpenSQLiteKV(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return kv, func() { kv.Close() }, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

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

func (r *Runner) writeSongs(songs []models.Song) {
	for i, s := range songs {
		album := s.Album
		if album != "" {
			album = " · " + album
		}
		r.writePlain("%3d. [%s] %s — %s%s\n", i+1, s.Source, s.Name, s.Artist, album)
	}
	if len(songs) == 0 {
		r.writePlain("no results\n")
	}
}

func (r *Runner) writeTopLists(lists []models.TopList) {
	for _, l := range lists {
		freq := l.UpdateFrequency
		if freq != "" {
			freq = " (" + freq + ")"
		}
		r.writePlain("%s  %s%s\n", l.ID, l.Name, freq)
	}
	if len(lists) == 0 {
		r.writePlain("no charts\n")
	}
}
