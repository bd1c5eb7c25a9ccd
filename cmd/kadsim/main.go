// Command kadsim runs one simulation scenario against the configuration in
// config.toml and prints the aggregate query statistics.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nmxmxh/kadsim/app"
	"github.com/nmxmxh/kadsim/config"
	"github.com/nmxmxh/kadsim/utils"
)

var (
	configPath string
	scenario   string
	timedelta  float64
	blocks     int
	duration   float64
)

func main() {
	root := &cobra.Command{
		Use:   "kadsim",
		Short: "Discrete-event simulator for the IPFS Kademlia DHT",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "config.toml", "path to the configuration file")
	root.Flags().StringVar(&scenario, "scenario", "race", "scenario to run: idle, lookups, publish, retrieve, race, sweep")
	root.Flags().Float64Var(&timedelta, "timedelta", -0.2, "race offset in seconds; negative retrieves first")
	root.Flags().IntVar(&blocks, "blocks", 10_000, "number of blocks for the publish/retrieve scenarios")
	root.Flags().Float64Var(&duration, "duration", 0, "simulated seconds for the idle scenario; 0 runs to quiescence")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg.LogLevelFilter, cfg.LogFilePath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	switch scenario {
	case "idle":
		a.RunIdle(duration)
	case "lookups":
		a.RunManualLookups()
	case "publish":
		a.RunIntensivePublish(blocks)
	case "retrieve":
		a.RunIntensiveRetrieve(blocks)
	case "race":
		a.RunPublishRetrieveRace(timedelta, blocks)
	case "sweep":
		a.RunSweep(blocks)
	default:
		return errors.Errorf("unknown scenario %q", scenario)
	}
	elapsed := time.Since(start)

	stats := a.SummarizeStats()
	fmt.Println(stats.String())

	logger.Info("simulation finished",
		zap.String("run_id", a.RunID()),
		zap.String("scenario", scenario),
		zap.Float64("simulated_seconds", a.Simulation().Time()),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}
