package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	schemagen "github.com/ajzo90/go-jsonschema-generator"
	"github.com/ajzo90/go-requests"
	"github.com/ajzo90/tap-nikabot"
	"github.com/ajzo90/tap-nikabot/integrations/nikabot"
	"github.com/ajzo90/tap-nikabot/pkg/airbyte"
	"github.com/ajzo90/tap-nikabot/pkg/singer"
	"github.com/ajzo90/tap-nikabot/pkg/statestore"
	"github.com/ajzo90/tap-nikabot/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	inputFiles
	Discover bool
	Check    bool
	Spec     bool
	StateDB  string
	Trace    bool
	LogLevel string
	Format   string
}

const (
	formatSinger  = "singer"
	formatAirbyte = "airbyte"
)

type statusEmitter interface {
	EmitStatus(err error) error
}

const documentationURL = "https://github.com/ajzo90/tap-nikabot"

type app struct {
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
	// doer overrides the HTTP transport of the tap, nil in production.
	doer requests.Doer
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tap-nikabot",
		Short: "Singer tap for the Nikabot time tracking API",
		Long: `tap-nikabot extracts users, roles, groups, teams, projects and time tracking
records from the Nikabot API and writes them to stdout as Singer messages.
Records are synced incrementally on their created_at timestamp.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return a.run(c.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Config, "config", "c", "", "Path to the config file")
	f.StringVarP(&opts.State, "state", "s", "", "Path to a state file or a previous run's output")
	f.StringVar(&opts.Catalog, "catalog", "", "Path to the catalog file, discovered when absent")
	f.BoolVarP(&opts.Discover, "discover", "d", false, "Write the catalog instead of syncing")
	f.BoolVar(&opts.Check, "check", false, "Verify credentials and connectivity")
	f.BoolVar(&opts.Spec, "spec", false, "Write the config JSON schema")
	f.StringVar(&opts.StateDB, "state-db", "", "SQLite database to load and save bookmarks")
	f.BoolVar(&opts.Trace, "trace", false, "Export trace spans to stderr")
	f.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&opts.Format, "format", formatSinger, "Output protocol (singer, airbyte)")

	cmd.AddCommand(airbyteCmds(a)...)
	return cmd
}

func (a *app) run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level '%s'", opts.LogLevel)
	}
	runID := uuid.NewString()
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})).With("run_id", runID)

	var out tap.Proto
	switch opts.Format {
	case formatSinger:
		out = singer.New(a.stdout)
	case formatAirbyte:
		out = airbyte.New(a.stdout)
		opts.Airbyte = true
	default:
		return fmt.Errorf("invalid format '%s'", opts.Format)
	}

	if opts.Spec {
		if ab, ok := out.(*airbyte.Airbyte); ok {
			return ab.EmitSpec(airbyte.ConnectorSpecification{
				DocumentationURL:        documentationURL,
				SupportsIncremental:     true,
				ConnectionSpecification: schemagen.New(nikabot.Config{}),
			})
		}
		return json.NewEncoder(a.stdout).Encode(schemagen.New(nikabot.Config{}))
	}

	cmd := tap.CmdSync
	switch {
	case opts.Check:
		cmd = tap.CmdCheck
	case opts.Discover:
		cmd = tap.CmdDiscover
	}

	in, err := opts.messages()
	if err != nil {
		return err
	}
	p, err := tap.Open(bytes.NewReader(in), cmd)
	if err != nil {
		return err
	}
	var raw json.RawMessage
	if err := p.Load(&raw); err != nil {
		return err
	}
	config, err := nikabot.ParseConfig(raw)
	if err != nil {
		return err
	}

	if opts.Trace {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{RunID: runID, Writer: a.stderr})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				a.log.Warn("Trace shutdown failed", "err", err)
			}
		}()
	}

	source := nikabot.New(config, a.doer, a.log)

	switch cmd {
	case tap.CmdCheck:
		err := source.Check(ctx)
		if s, ok := out.(statusEmitter); ok {
			// the status message carries the failure
			if err != nil {
				a.log.Warn("Connection check failed", "err", err)
			}
			return s.EmitStatus(err)
		}
		if err != nil {
			return err
		}
		a.log.Info("Connection check succeeded")
		return nil
	case tap.CmdDiscover:
		catalog, err := source.Discover(ctx)
		if err != nil {
			return err
		}
		return out.EmitCatalog(catalog)
	}

	catalog := p.Catalog()
	if catalog == nil {
		a.log.Info("No catalog given, running discovery")
		c, err := source.Discover(ctx)
		if err != nil {
			return err
		}
		catalog = &c
	}

	state := tap.State{}
	var store *statestore.Store
	if opts.StateDB != "" {
		if store, err = statestore.Open(ctx, opts.StateDB); err != nil {
			return err
		}
		defer store.Close()
		if state, err = store.Load(ctx); err != nil {
			return err
		}
	}
	for k, v := range p.State() {
		// empty watermarks are absent and must not clear a stored one
		if v != "" {
			state[k] = v
		}
	}

	runner := &tap.Runner{Streams: source.Streams(), Proto: out, Log: a.log}
	final, err := runner.Sync(ctx, *catalog, state)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if store != nil {
		if err := store.Save(ctx, final); err != nil {
			return err
		}
		a.log.Info("State saved", "path", opts.StateDB, "streams", len(final))
	}
	return nil
}
