package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// importCmd merges one or more CSV transaction exports into the ledger.
type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import broker CSV transaction exports into the ledger" }
func (*importCmd) Usage() string {
	return `t2t import <file.csv> [<file.csv> ...]

  Parses the given CSV exports and merges their transactions into the
  ledger. Rows already present are skipped, so re-importing an export is
  harmless. Malformed rows are reported and skipped.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no files given")
		return subcommands.ExitUsageError
	}
	engine, err := openEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	report, err := engine.ImportTransactionFiles(f.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, pe := range report.Rejected {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", pe)
	}
	fmt.Printf("Imported %d new transactions (%d duplicates, %d rejected), ledger now holds %d.\n",
		report.Inserted, report.Duplicates, len(report.Rejected), report.Total)
	return subcommands.ExitSuccess
}
