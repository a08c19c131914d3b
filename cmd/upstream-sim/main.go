package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/fairway/internal/upstreamsim"
	"github.com/okian/fairway/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	addrFlag     = "addr"
	tournamentFl = "tournament"
	playersFlag  = "players"
	holesFlag    = "holes"
	seedFlag     = "seed"
	tickFlag     = "tick"
	tokenFlag    = "token"
	failRateFlag = "fail-rate"
	logLevelFlag = "log-level"
)

func main() {
	app := &cli.App{
		Name:  "upstream-sim",
		Usage: "Simulate the scoring and roster service for local runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: addrFlag, Value: ":9090", Usage: "listen address"},
			&cli.StringFlag{Name: tournamentFl, Aliases: []string{"t"}, Value: "demo", Usage: "tournament ID"},
			&cli.IntFlag{Name: playersFlag, Aliases: []string{"n"}, Value: 40, Usage: "roster size"},
			&cli.IntFlag{Name: holesFlag, Value: 18, Usage: "holes per round"},
			&cli.Uint64Flag{Name: seedFlag, Value: uint64(time.Now().UnixNano()), DefaultText: "now", Usage: "roster seed"},
			&cli.DurationFlag{Name: tickFlag, Value: 500 * time.Millisecond, Usage: "time between simulated holes"},
			&cli.StringFlag{Name: tokenFlag, EnvVars: []string{"UPSTREAM_SIM_TOKEN"}, Usage: "required bearer token"},
			&cli.Float64Flag{Name: failRateFlag, Value: 0, Usage: "share of reads answered with 503"},
			&cli.StringFlag{Name: logLevelFlag, Value: "info", Usage: "debug, info, warn or error"},
		},
		Before: func(cCtx *cli.Context) error {
			if err := logger.Init(); err != nil {
				return err
			}
			return logger.SetLevelString(cCtx.String(logLevelFlag))
		},
		Action: func(cCtx *cli.Context) error {
			ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return upstreamsim.Run(ctx, upstreamsim.Config{
				Addr:         cCtx.String(addrFlag),
				TournamentID: cCtx.String(tournamentFl),
				Players:      cCtx.Int(playersFlag),
				Holes:        cCtx.Int(holesFlag),
				Seed:         cCtx.Uint64(seedFlag),
				Tick:         cCtx.Duration(tickFlag),
				Token:        cCtx.String(tokenFlag),
				FailRate:     cCtx.Float64(failRateFlag),
			})
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Stderr.WriteString("upstream-sim: " + err.Error() + "\n")
		os.Exit(1)
	}
}
