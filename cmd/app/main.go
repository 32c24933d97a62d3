package main

import (
	"flag"
	"log"
	"os"

	"BlockCast/internal/di"
	"BlockCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s tickers=%v bar_interval=%s calendar=%s",
		cfg.Environment, cfg.Prediction.Tickers, cfg.Prediction.BarInterval, cfg.Prediction.Calendar.Mode)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// blocks until SIGINT/SIGTERM
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
