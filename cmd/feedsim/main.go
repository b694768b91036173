package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fraud-watch/monitor/internal/config"
	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/feedsim"
)

func main() {
	configPath := flag.String("config", "fraudwatch.yaml", "Path to config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	token := flag.String("token", "", "Require this bearer token")
	autostart := flag.Bool("autostart", false, "Start both feeds immediately")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Simulator.Port = *port
	}
	if *token == "" {
		*token = cfg.Feed.Token
	}

	srv := feedsim.NewServer(feedsim.Options{
		Tick:      cfg.Simulator.Tick,
		BatchSize: cfg.Simulator.BatchSize,
		FraudRate: cfg.Simulator.FraudRate,
		Token:     *token,
		Seed:      time.Now().UnixNano(),
	})
	if *autostart {
		for _, m := range feed.Modes {
			srv.Generator(m).Start()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("[state] feed simulator stopped")
}
