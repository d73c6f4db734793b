// Package cmd implements the CLI application around the reconciliation
// engine.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	t212 "github.com/tmajor/t212"
)

// Commands lists every subcommand; a main package registers them all.
var Commands = []subcommands.Command{
	&importCmd{},
	&positionsCmd{},
	&refreshCmd{},
	&historyCmd{},
	&summaryCmd{},
	&watchCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var dataDir = flag.String("data", defaultDataDir(), "Path to the data directory holding the ledger and caches")
var verbose = flag.Bool("v", false, "Enable debug logging")

// defaultDataDir resolves to $T212_DATA, else ~/.t212.
func defaultDataDir() string {
	if dir := os.Getenv("T212_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".t212"
	}
	return filepath.Join(home, ".t212")
}

// newLogger builds the console logger shared by all commands.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// openEngine loads the configuration and state from the data directory.
func openEngine() (*t212.Engine, error) {
	cfg, err := t212.LoadConfig(*dataDir)
	if err != nil {
		return nil, err
	}
	return t212.NewEngine(cfg, newLogger())
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when styling fails (e.g. output is not a TTY-friendly environment).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
