package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	t212 "github.com/tmajor/t212"
)

// refreshCmd forces an upstream fetch and records a net-gain sample.
type refreshCmd struct{}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "fetch fresh positions and record a net-gain sample" }
func (*refreshCmd) Usage() string {
	return `t2t refresh

  Bypasses the cache, fetches positions and cash from the broker and
  records a net-gain sample. The minimum interval between upstream calls
  still applies: a call arriving too early reports when to retry.
`
}

func (*refreshCmd) SetFlags(*flag.FlagSet) {}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, err := openEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	res, err := engine.RequestNetGainUpdate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error refreshing: %v\n", err)
		return subcommands.ExitFailure
	}
	if res.Status == t212.RefreshTryAgainLater {
		fmt.Printf("Rate limited; try again in %s.\n", res.RetryIn.Round(time.Second))
		return subcommands.ExitSuccess
	}
	if !res.Appended {
		fmt.Println("Positions refreshed. Net gain not recorded: the ledger has no deposits yet (run 'import' first).")
		return subcommands.ExitSuccess
	}
	fmt.Println("Positions refreshed and net-gain sample recorded.")
	return subcommands.ExitSuccess
}
