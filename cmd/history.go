package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	t212 "github.com/tmajor/t212"
)

// historyCmd displays the recorded net-gain series.
type historyCmd struct {
	recent int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the recorded net-gain history" }
func (*historyCmd) Usage() string {
	return `t2t history [-n <count>]

  Displays the recorded net-gain samples, oldest to newest, plus the
  overall change across the retained window.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.recent, "n", 20, "Number of most recent samples to list (0 for all)")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, err := openEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(t212.HistoryMarkdown(engine.History(), c.recent))
	return subcommands.ExitSuccess
}
