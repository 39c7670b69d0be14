// Package main starts the portal agent process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	agentcmd "github.com/craftedmc/portal/internal/cmd/agent"
	"github.com/craftedmc/portal/internal/platform/config"
)

func main() {
	cfg, err := agentcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf(config.ExitConfigError, "parse config: %v", err)
	}
	log.SetPrefix("[AGENT] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agentcmd.Run(ctx, cfg); err != nil {
		config.Exitf(config.ExitRunError, "agent: %v", err)
	}
}
