package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hbomb79/Snag/internal"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("Main")

// main is the entry point to the program: load the configuration
// (optional YAML file, environment always applies), construct the
// gateway and run it until interrupted.
func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (optional)")
	flag.Parse()

	config := internal.SnagConfig{}
	var err error
	if *configPath != "" {
		err = config.LoadFromFile(*configPath)
	} else {
		err = config.LoadFromEnv()
	}
	if err != nil {
		log.Emit(logger.FATAL, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Snag failed: %v\n", err)
		os.Exit(1)
	}

	log.Emit(logger.STOP, "Snag shut down\n")
}
