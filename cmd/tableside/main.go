package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tableside/internal/app/client"
	"tableside/internal/common/config"
	"tableside/internal/common/logger"
)

func main() {
	mode := flag.String("mode", "client-service", "client-service")
	cfgPath := flag.String("config", "", "path to YAML config (probed if empty)")
	port := flag.Int("port", 0, "http port (overrides config)")
	flag.Parse()

	lg := logger.New("bootstrap")

	path := *cfgPath
	if path == "" {
		found, err := config.FindConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "no config file found; pass --config")
			os.Exit(2)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "client-service":
		p := cfg.HTTP.Port
		if *port != 0 {
			p = *port
		}
		if err := client.Run(ctx, cfg, p); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode must be: client-service")
		os.Exit(2)
	}
}
