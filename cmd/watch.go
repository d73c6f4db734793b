package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	t212 "github.com/tmajor/t212"
)

// watchCmd keeps the process alive and records net-gain samples on a
// schedule.
type watchCmd struct {
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "periodically refresh and record net-gain samples" }
func (*watchCmd) Usage() string {
	return `t2t watch [-every <interval>]

  Runs until interrupted, refreshing positions and recording a net-gain
  sample on the given interval. Intervals below the upstream rate limit
  are refused.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "every", 5*time.Minute, "Sampling interval")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.interval < time.Minute {
		fmt.Fprintln(os.Stderr, "Error: interval below the 1m upstream rate limit")
		return subcommands.ExitUsageError
	}
	engine, err := openEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	log := newLogger().With().Str("component", "watch").Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sample := func() {
		res, err := engine.RequestNetGainUpdate(ctx)
		if err != nil {
			log.Error().Err(err).Msg("refresh failed")
			return
		}
		if res.Status == t212.RefreshTryAgainLater {
			log.Info().Dur("retry_in", res.RetryIn).Msg("rate limited, skipping sample")
		}
	}

	cr := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{log}),
		cron.Recover(cronLogger{log}),
	))
	if _, err := cr.AddFunc(fmt.Sprintf("@every %s", c.interval), sample); err != nil {
		fmt.Fprintf(os.Stderr, "Error scheduling: %v\n", err)
		return subcommands.ExitFailure
	}

	log.Info().Dur("every", c.interval).Msg("watching")
	sample() // one sample immediately, then on the schedule
	cr.Start()
	<-ctx.Done()
	<-cr.Stop().Done()
	log.Info().Msg("stopped")
	return subcommands.ExitSuccess
}

// cronLogger adapts zerolog to the cron logging interface.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug().Fields(kv).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error().Err(err).Fields(kv).Msg(msg)
}
