package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	t212 "github.com/tmajor/t212"
)

// summaryCmd displays the full account overview.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display an account summary" }
func (*summaryCmd) Usage() string {
	return `t2t summary

  Displays market value, cash, lifetime deposits and withdrawals, fees,
  realized and unrealized P/L, trailing-twelve-month dividends and the
  net gain, with warnings on stale data and concentrated positions.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, err := openEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := engine.Summarize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building summary: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(t212.SummaryMarkdown(s))
	return subcommands.ExitSuccess
}
