package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sentiflow/cache"
	"sentiflow/config"
	"sentiflow/logger"
	"sentiflow/models"
	"sentiflow/scraper"
	"sentiflow/scraper/reddit"
	"sentiflow/scraper/stocktwits"
	"sentiflow/scraper/twitter"
	"sentiflow/sentiment"
	"sentiflow/server"
	"sentiflow/summary"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Sentiflow.Name,
		"version":     cfg.Sentiflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting sentiflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Cloudwatch.Enabled {
		logger.InitCloudWatch(cfg.Cloudwatch.Region, cfg.Cloudwatch.Namespace)
	}
	if cfg.Cloudwatch.Enabled || strings.ToLower(cfg.Logging.Level) == "report" {
		interval := time.Duration(cfg.Cloudwatch.ReportIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = 30 * time.Second
		}
		logger.StartReport(ctx, log, interval)
	}

	scrapers := make([]scraper.Scraper, 0, 3)
	if cfg.Sources.Reddit.Enabled {
		scrapers = append(scrapers, reddit.New(cfg.Sources.Reddit, cfg.Scraper))
	}
	if cfg.Sources.Twitter.Enabled {
		scrapers = append(scrapers, twitter.New(cfg.Sources.Twitter))
	}
	if cfg.Sources.StockTwits.Enabled {
		scrapers = append(scrapers, stocktwits.New(cfg.Sources.StockTwits, cfg.Scraper))
	}
	log.WithComponent("main").WithFields(logger.Fields{"sources": len(scrapers)}).Info("sources configured")

	var generator summary.Generator
	if cfg.Gemini.APIKey != "" {
		gen, err := summary.NewGemini(ctx, cfg.Gemini)
		if err != nil {
			log.WithError(err).Warn("Gemini unavailable, summaries use templates")
		} else {
			generator = gen
			log.WithComponent("main").WithFields(logger.Fields{"model": cfg.Gemini.Model}).Info("AI summaries enabled")
		}
	} else {
		log.WithComponent("main").Info("no Gemini API key, summaries use templates")
	}

	aggregator := sentiment.New(scrapers, generator, cfg.Scraper.FetchLimit)

	store := cache.New[*models.SentimentReport](cfg.Cache.DefaultTTL())
	store.StartSweeper(ctx, cfg.Cache.SweepInterval())

	srv := server.NewServer(cfg.Server, aggregator, store, cfg.Cache.DefaultTTL(), log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(ctx)
	}()

	log.WithFields(logger.Fields{
		"address":     srv.Address(),
		"cache_ttl":   cfg.Cache.DefaultTTL().String(),
		"ai_summary":  generator != nil,
		"sources":     len(scrapers),
		"fetch_limit": cfg.Scraper.FetchLimit,
	}).Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
		cancel()
		os.Exit(1)
	}

	log.Info("starting graceful shutdown")
	cancel()

	select {
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Warn("server shutdown reported error")
		}
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("sentiflow stopped")
}
