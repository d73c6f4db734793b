package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	t212 "github.com/tmajor/t212"
)

// positionsCmd displays current positions, served from the cache when fresh.
type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display current positions and cash" }
func (*positionsCmd) Usage() string {
	return `t2t positions

  Displays the current positions with value, profit and loss and portfolio
  weight. Data is served from the local cache when it is fresh enough;
  use 'refresh' to force a fetch.
`
}

func (*positionsCmd) SetFlags(*flag.FlagSet) {}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, err := openEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	snap, err := engine.RequestPositions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching positions: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(t212.PositionsMarkdown(snap))
	return subcommands.ExitSuccess
}
