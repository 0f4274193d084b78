// Command tradeclient is a sample binary exercising the trade
// package end to end: it logs on, fetches the security list and open
// positions, then prints execution reports as they arrive.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	_ "go.uber.org/automaxprocs"

	"github.com/tradeflow/fixvenue/config"
	"github.com/tradeflow/fixvenue/metrics"
	"github.com/tradeflow/fixvenue/session"
	"github.com/tradeflow/fixvenue/store"
	"github.com/tradeflow/fixvenue/trade"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (overrides FIXVENUE_LOG_LEVEL)")
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

	handlers := trade.Handlers{
		OnExecutionReport: func(r trade.ExecutionReport) {
			logger.Info().
				Str("cl_ord_id", r.ClOrdID).
				Str("symbol", r.Symbol).
				Str("ord_status", r.OrdStatus).
				Str("exec_type", r.ExecType).
				Float64("cum_qty", r.CumQty).
				Float64("leaves_qty", r.LeavesQty).
				Msg("execution report")
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

	client := trade.New(sessCfg, logger, limiter, handlers, connHandlers)
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

	reportStartupState(client, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	client.Disconnect()
}

func reportStartupState(client *trade.Client, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	securities, err := client.FetchSecurityList(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch security list")
	} else {
		logger.Info().Int("count", len(securities)).Msg("security list loaded")
	}

	positions, err := client.FetchPositions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch positions")
	} else {
		logger.Info().Int("count", len(positions)).Msg("open positions loaded")
	}
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
