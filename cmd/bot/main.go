package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"SilverSnap/internal/broker"
	"SilverSnap/internal/collector"
	"SilverSnap/internal/config"
	"SilverSnap/internal/notifier"
	"SilverSnap/internal/recorder"
	"SilverSnap/internal/scheduler"
	"SilverSnap/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SilverSnap starting...")

	// Secrets come from .env in development; a missing file is fine.
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.TwelveDataAPIKey != "" {
		fetcher = collector.NewTwelveDataFetcher(cfg.DataSource.BaseURL, cfg.DataSource.TwelveDataAPIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init collector
	col := collector.NewCollector(fetcher, cfg.Symbols.Reference, cfg.Symbols.Conservative, cfg.Symbols.Leveraged, cfg.Indicators.LookbackDays)

	// Init decision engine
	eng, err := strategy.NewEngine(cfg.EngineParams())
	if err != nil {
		log.Fatalf("[FATAL] init engine: %v", err)
	}

	// Init broker: Schwab when credentials are complete, paper otherwise
	var brk broker.Broker
	creds := broker.Credentials{
		AppKey:       cfg.Schwab.AppKey,
		AppSecret:    cfg.Schwab.AppSecret,
		RefreshToken: cfg.Schwab.RefreshToken,
		AccountHash:  cfg.Schwab.AccountHash,
	}
	if creds.Complete() {
		brk, err = broker.NewSchwabBroker(creds, cfg.Proxy)
		if err != nil {
			log.Fatalf("[FATAL] init schwab broker: %v", err)
		}
	} else {
		brk, err = broker.NewPaperBroker(cfg.Account.StateFile, cfg.Account.Capital)
		if err != nil {
			log.Fatalf("[FATAL] init paper broker: %v", err)
		}
	}
	log.Printf("[INFO] broker: %s (execute=%v)", brk.Name(), cfg.Execute)

	// Init notifier
	var ntf notifier.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		ntf = tn
	} else {
		log.Println("[WARN] Telegram not configured, alerts go to the log")
		ntf = notifier.NewConsoleNotifier()
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched, err := scheduler.NewScheduler(ctx, cfg, col, eng, brk, ntf, rec)
	if err != nil {
		log.Fatalf("[FATAL] init scheduler: %v", err)
	}
	if err := sched.RegisterAll(); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing evaluation cycle now")
		go sched.RunNow()
	}

	log.Println("[INFO] SilverSnap is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] SilverSnap stopped")
}
