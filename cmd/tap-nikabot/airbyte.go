package main

import (
	"github.com/spf13/cobra"
)

// airbyteCmds are the positional Airbyte source commands; they share run
// with the root command and always write the Airbyte protocol.
func airbyteCmds(a *app) []*cobra.Command {
	type command struct {
		use, short string
		set        func(*options)
		files      bool
	}
	var cmds []*cobra.Command
	for _, c := range []command{
		{"spec", "Write the Airbyte connector specification", func(o *options) { o.Spec = true }, false},
		{"check", "Write the Airbyte connection status", func(o *options) { o.Check = true }, false},
		{"discover", "Write the Airbyte catalog", func(o *options) { o.Discover = true }, false},
		{"read", "Sync the configured catalog", func(o *options) {}, true},
	} {
		c := c
		opts := &options{Format: formatAirbyte}
		cmd := &cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c.set(opts)
				return a.run(cmd.Context(), opts)
			},
		}
		f := cmd.Flags()
		f.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
		if c.use != "spec" {
			f.StringVar(&opts.Config, "config", "", "Path to the config file")
		}
		if c.files {
			f.StringVar(&opts.State, "state", "", "Path to the state file")
			f.StringVar(&opts.Catalog, "catalog", "", "Path to the configured catalog")
			f.StringVar(&opts.StateDB, "state-db", "", "SQLite database to load and save bookmarks")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
