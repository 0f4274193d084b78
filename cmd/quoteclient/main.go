// Command quoteclient is a sample binary exercising the quote
// package end to end: it logs on, subscribes to a handful of symbols
// and prints spot/depth updates as they arrive, while exposing
// Prometheus metrics for scraping.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	_ "go.uber.org/automaxprocs"

	"github.com/tradeflow/fixvenue/config"
	"github.com/tradeflow/fixvenue/metrics"
	"github.com/tradeflow/fixvenue/quote"
	"github.com/tradeflow/fixvenue/session"
	"github.com/tradeflow/fixvenue/store"
)

func main() {
	var (
		debug   = flag.Bool("debug", false, "enable debug logging (overrides FIXVENUE_LOG_LEVEL)")
		symbols = flag.String("symbols", "1,2", "comma-separated symbols to subscribe to")
	)
	flag.Parse()

	startupLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	maxProcs := runtime.GOMAXPROCS(0)
	startupLogger.Info().Int("gomaxprocs", maxProcs).Msg("automaxprocs applied")

	cfg, err := config.Load(&startupLogger)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := newLogger(cfg)
	cfg.LogConfig(logger)

	var persist *store.Store
	if cfg.StorePath != "" {
		persist, err = store.Open(cfg.StorePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open store")
		}
		defer persist.Close()
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.OutboundRateLimit), cfg.OutboundRateLimit)

	handlers := quote.Handlers{
		OnPriceOf: func(symbol string, price quote.SpotPrice) {
			logger.Info().Str("symbol", symbol).Float64("bid", price.Bid).Float64("ask", price.Ask).Msg("spot price")
		},
		OnMarketDepthFullRefresh: func(symbol string, book map[string]quote.DepthEntry) {
			logger.Info().Str("symbol", symbol).Int("levels", len(book)).Msg("depth snapshot")
		},
		OnMarketDepthIncremental: func(updates []quote.DepthUpdate) {
			logger.Debug().Int("updates", len(updates)).Msg("depth incremental")
		},
		OnAcceptedSpotSubscription: func(symbol string) {
			logger.Info().Str("symbol", symbol).Msg("spot subscription accepted")
		},
		OnRejectedSpotSubscription: func(symbol, reason string) {
			logger.Warn().Str("symbol", symbol).Str("reason", reason).Msg("spot subscription rejected")
		},
		OnAcceptedDepthSubscription: func(symbol string) {
			logger.Info().Str("symbol", symbol).Msg("depth subscription accepted")
		},
		OnRejectedDepthSubscription: func(symbol, reason string) {
			logger.Warn().Str("symbol", symbol).Str("reason", reason).Msg("depth subscription rejected")
		},
	}

	connHandlers := session.ConnHandlers{
		OnConnect:    func() { logger.Info().Msg("tcp connected") },
		OnLogon:      func() { logger.Info().Msg("logged on") },
		OnDisconnect: func() { logger.Warn().Msg("disconnected") },
	}

	sessCfg := session.Config{
		Host:         cfg.Host,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SenderCompID: cfg.SenderCompID,
		HeartBtInt:   cfg.HeartBtInt,
		LogonTimeout: cfg.LogonTimeout,
	}

	client := quote.New(sessCfg, logger, limiter, handlers, connHandlers)
	if persist != nil {
		client.SetStore(persist)
	}

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger)
	defer shutdownMetricsServer(metricsSrv, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LogonTimeout+5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}

	for _, symbol := range strings.Split(*symbols, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}
		if err := client.SubscribeSpot(context.Background(), symbol); err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("subscribe spot failed")
		}
		if err := client.SubscribeDepth(context.Background(), symbol); err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("subscribe depth failed")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	client.Disconnect()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w = os.Stdout
	if cfg.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func startMetricsServer(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("metrics server listening")
	return srv
}

func shutdownMetricsServer(srv *http.Server, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown error")
	}
}
