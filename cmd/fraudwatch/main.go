package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fraud-watch/monitor/internal/app"
	"github.com/fraud-watch/monitor/internal/config"
	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/procstat"
	"github.com/fraud-watch/monitor/internal/session"
)

func main() {
	configPath := flag.String("config", "fraudwatch.yaml", "Path to config file")
	baseURL := flag.String("url", "", "HTTP base URL of the fraud detection backend (overrides config)")
	mode := flag.String("mode", "", "Initial feed: simulation or real_model (overrides config)")
	token := flag.String("token", "", "Auth token (if backend requires it)")
	logFile := flag.String("log", "", "Log file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *baseURL != "" {
		cfg.Feed.BaseURL = *baseURL
	}
	if *mode != "" {
		cfg.Feed.Mode = *mode
	}
	if *token != "" {
		cfg.Feed.Token = *token
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	wsBase, err := feed.WebSocketBase(cfg.Feed.BaseURL)
	if err != nil {
		log.Fatalf("Invalid base url: %v", err)
	}

	// The alt screen owns stdout; logs go to a file and the debug overlay.
	f, err := tea.LogToFile(cfg.Log.File, "")
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()
	sink := app.NewLogSink(256)
	logger := log.New(io.MultiWriter(f, sink), "", log.LstdFlags)

	ctrl := session.New(
		feed.NewDialer(wsBase, cfg.Feed.Token, logger),
		feed.NewControlClient(cfg.Feed.BaseURL, cfg.Feed.Token, cfg.Control.Timeout),
		cfg.Mode(),
		session.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)

	opts := []app.Option{app.WithLogLines(sink.Lines())}
	if sampler, err := procstat.Self(); err == nil {
		opts = append(opts, app.WithSampler(sampler))
	} else {
		logger.Printf("[err] process stats unavailable: %v", err)
	}

	logger.Printf("[state] fraudwatch starting: %s (%s)", cfg.Feed.BaseURL, cfg.Mode())
	p := tea.NewProgram(app.New(ctrl, opts...), tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	<-ctrl.Done()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
