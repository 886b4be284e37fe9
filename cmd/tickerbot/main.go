package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"tickerbot/internal/application/port"
	"tickerbot/internal/application/service"
	"tickerbot/internal/domain"
	"tickerbot/internal/infrastructure/config"
	"tickerbot/internal/infrastructure/line"
	"tickerbot/internal/infrastructure/logger"
	"tickerbot/internal/infrastructure/quote"
	"tickerbot/internal/infrastructure/registry"
	"tickerbot/internal/interfaces/webhook"
)

func main() {
	logger.Setup("info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	httpClient := quote.NewClient(timeout)

	// providers in configured priority order
	var providers []port.QuoteProvider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "yahoo":
			if cfg.Providers.Yahoo.Enabled {
				providers = append(providers, quote.NewYahoo(cfg.Providers.Yahoo.Endpoint, httpClient))
			}
		case "finmind":
			if cfg.Providers.FinMind.Enabled {
				if cfg.Providers.FinMind.Token == "" {
					log.Warn().Msg("finmind enabled but FINMIND_TOKEN not set")
				}
				providers = append(providers, quote.NewFinMind(cfg.Providers.FinMind.Endpoint, cfg.Providers.FinMind.Token, httpClient))
			}
		case "sina":
			if cfg.Providers.Sina.Enabled {
				providers = append(providers, quote.NewSina(cfg.Providers.Sina.Endpoint, httpClient))
			}
		default:
			log.Warn().Str("provider", name).Msg("unknown provider in providers.order")
		}
	}
	if len(providers) == 0 {
		log.Fatal().Msg("no quote providers enabled")
	}
	chain := quote.NewChain(providers...)

	fixed := make([]domain.Symbol, 0, len(cfg.Symbols.Fixed))
	for _, code := range cfg.Symbols.Fixed {
		fixed = append(fixed, domain.NormalizeSymbol(code))
	}

	messenger := line.NewClient(cfg.Line.APIBase, cfg.Line.ChannelAccessToken, timeout)
	subs := registry.NewMemory()

	dispatcher := service.NewDispatcher(service.DispatcherDeps{
		Registry:      subs,
		Quotes:        chain,
		Messenger:     messenger,
		Fixed:         fixed,
		BroadcastMode: cfg.Broadcast.Mode,
		Recipients:    cfg.Broadcast.Recipients,
	})

	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Market.Timezone).Msg("load timezone failed")
	}
	scheduler := service.NewScheduler(dispatcher, service.SchedulerConfig{
		Mode:      cfg.Broadcast.Schedule,
		Interval:  time.Duration(cfg.Broadcast.IntervalMin) * time.Minute,
		Location:  loc,
		OpenHour:  cfg.Market.OpenHour,
		CloseHour: cfg.Market.CloseHour,
	})
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("scheduler exited")
		}
	}()

	handler := webhook.NewHandler(cfg.Line.ChannelSecret, dispatcher, messenger)
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler.Routes(),
	}

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Int("fixed_symbols", len(fixed)).
			Int("providers", len(providers)).
			Str("broadcast_mode", cfg.Broadcast.Mode).
			Msg("tickerbot started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("tickerbot stopped")
}
