// Package cli implements the mnemo CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/config"
	"github.com/mnemo-sh/mnemo/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mnemo",
	Short: "Local knowledge store for autonomous agents",
	Long:  "A local knowledge store for autonomous agents: short memories with structured metadata, full-text search, duplicate detection, and consistency checks. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MNEMO_DB or ~/.mnemo/mnemo.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.mnemo/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func resolveConfig() config.Resolved {
	cfg, err := config.Resolve(configPath, dbPath)
	if err != nil {
		exitErr("config", err)
	}
	return cfg
}

func openWrite() *store.Store {
	s, err := store.Open(resolveConfig(), store.ModeWrite, logger())
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func openRead() *store.Store {
	s, err := store.Open(resolveConfig(), store.ModeRead, logger())
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func output(v interface{}) {
	if formatFlag == "text" {
		printText(v)
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
