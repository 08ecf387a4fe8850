// Command wizard runs the registration wizard in a terminal. Progress is
// saved after every step and picked up again on the next run.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"registration-wizard/internal/config"
	"registration-wizard/internal/factory"
	"registration-wizard/internal/steps"
	"registration-wizard/internal/util"
)

func main() {
	dir := flag.String("dir", "", "directory for saved progress (overrides STORAGE_DIR)")
	flag.Parse()

	cfg := config.LoadConfig()
	if *dir != "" {
		cfg.Storage.Dir = *dir
	}
	// memory storage would lose progress between runs
	if cfg.Storage.Driver == config.StorageMemory {
		cfg.Storage.Driver = config.StorageFile
	}
	if err := cfg.Validate(); err != nil {
		util.Fatal("Invalid configuration", util.ErrorField(err))
	}

	logger := util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	defer util.Sync()

	f, err := factory.New(cfg, logger)
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flow := steps.NewFlow(f.Store("terminal"), f.OTPService(), cfg.Storage.Key)
	if err := run(ctx, os.Stdin, os.Stdout, flow); err != nil {
		util.Error("Wizard stopped with error", util.ErrorField(err))
		os.Exit(1)
	}
}
