package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cometbft/cometbft/abci/server"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"fairdeck/internal/app"
	"fairdeck/internal/config"
)

func main() {
	var (
		home       = flag.String("home", ".fairdeck", "app home directory (state will be stored under <home>/app)")
		configPath = flag.String("config", "", "path to a TOML config file (optional)")
		addr       = flag.String("addr", "", "ABCI listen address (overrides config)")
		transport  = flag.String("transport", "", "ABCI transport (socket|grpc, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *transport != "" {
		cfg.Transport = *transport
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))

	a, err := app.New(*home, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg.Listen, cfg.Transport, a)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "start abci server: %v\n", err)
		os.Exit(1)
	}
	srv.SetLogger(logger.With("module", "abci-server"))

	if err := srv.Start(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "abci server start: %v\n", err)
		os.Exit(1)
	}
	logger.Info("fairdeck node started",
		"chain", cfg.ChainID, "listen", cfg.Listen, "transport", cfg.Transport)
	defer func() { _ = srv.Stop() }()

	// Wait for signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
