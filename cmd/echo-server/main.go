package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/tcpkit/tcpkit/pkg/cfg"
	"github.com/tcpkit/tcpkit/pkg/clock"
	"github.com/tcpkit/tcpkit/pkg/log"
	"github.com/tcpkit/tcpkit/pkg/tcpserver"
)

func main() {
	configFile := flag.String("config", "config.dist.yml", "path to the config file")
	flag.Parse()

	color.NoColor = !isatty.IsTerminal(os.Stderr.Fd())

	if err := run(*configFile); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "echo-server: %s\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	config, err := cfg.New(cfg.WithConfigFile(configFile))
	if err != nil {
		return fmt.Errorf("can not load config: %w", err)
	}

	loggers, err := log.NewFactory(config, clock.Provider)
	if err != nil {
		return fmt.Errorf("can not build loggers: %w", err)
	}
	defer func() {
		_ = loggers.Close()
	}()

	server, err := tcpserver.New(config, loggers, tcpserver.NewEchoHandler())
	if err != nil {
		return fmt.Errorf("can not create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
