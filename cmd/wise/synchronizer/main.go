package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	appconfig "github.com/goodnatureofminers/wisedelegator-backend/internal/config"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/metrics"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/transport"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/repository/clickhouse"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/service/synchronizer"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/steem"
)

// options override values of the config file when set.
type options struct {
	ConfigPath      string        `long:"config" env:"WISE_CONFIG" description:"path to the TOML config, created with defaults when missing"`
	Delegator       string        `long:"delegator" env:"WISE_SYNC_DELEGATOR" description:"delegator account"`
	RPCURL          string        `long:"rpc-url" env:"WISE_SYNC_RPC_URL" description:"Steem JSON-RPC node URL"`
	RPCRPS          int           `long:"rpc-rps" env:"WISE_SYNC_RPC_RPS" description:"max requests per second to the node"`
	SignerURL       string        `long:"signer-url" env:"WISE_SYNC_SIGNER_URL" description:"signing proxy URL"`
	DryRun          bool          `long:"dry-run" env:"WISE_SYNC_DRY_RUN" description:"log operations instead of broadcasting them"`
	ClickhouseDSN   string        `long:"clickhouse-dsn" env:"WISE_SYNC_CLICKHOUSE_DSN" description:"ClickHouse DSN for the decision journal and cursor"`
	Concurrency     int           `long:"concurrency" env:"WISE_SYNC_CONCURRENCY" description:"voteorders validated in parallel"`
	HistoryPageSize int           `long:"history-page-size" env:"WISE_SYNC_HISTORY_PAGE_SIZE" description:"account history page size"`
	HistoryDepth    int           `long:"history-depth" env:"WISE_SYNC_HISTORY_DEPTH" description:"newest history operations to preload, 0 loads all"`
	PollInterval    time.Duration `long:"poll-interval" env:"WISE_SYNC_POLL_INTERVAL" description:"head polling interval"`
	RetryTimeout    time.Duration `long:"retry-timeout" env:"WISE_SYNC_RETRY_TIMEOUT" description:"how long failing ledger calls are retried"`
	FromBlock       uint64        `long:"from-block" env:"WISE_SYNC_FROM_BLOCK" description:"start block, overrides the stored cursor"`
	UntilBlock      uint64        `long:"until-block" env:"WISE_SYNC_UNTIL_BLOCK" description:"stop after this block"`
	MetricsAddr     string        `long:"metrics-addr" env:"WISE_SYNC_METRICS_ADDR" description:"metrics and status listen address"`
}

func main() {
	opts := options{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	cfg, err := appconfig.Load(opts.ConfigPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	opts.apply(cfg)
	if cfg.Delegator == "" {
		logger.Fatal("delegator is required")
	}

	if err := run(ctx, cfg, logger.With(zap.String("delegator", cfg.Delegator))); err != nil {
		logger.Fatal("wise synchronizer failed", zap.Error(err))
	}
}

func (o options) apply(cfg *appconfig.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Delegator, o.Delegator)
	set(&cfg.RPC.URL, o.RPCURL)
	set(&cfg.Signer.URL, o.SignerURL)
	set(&cfg.Clickhouse.DSN, o.ClickhouseDSN)
	set(&cfg.Metrics.Addr, o.MetricsAddr)
	if o.RPCRPS > 0 {
		cfg.RPC.RPS = o.RPCRPS
	}
	if o.DryRun {
		cfg.Signer.DryRun = true
	}
	if o.Concurrency > 0 {
		cfg.Sync.Concurrency = o.Concurrency
	}
	if o.HistoryPageSize > 0 {
		cfg.Sync.HistoryPageSize = o.HistoryPageSize
	}
	if o.HistoryDepth > 0 {
		cfg.Sync.HistoryDepth = o.HistoryDepth
	}
	if o.PollInterval > 0 {
		cfg.Sync.PollInterval = o.PollInterval
	}
	if o.RetryTimeout > 0 {
		cfg.Sync.RetryTimeout = o.RetryTimeout
	}
	if o.FromBlock > 0 {
		cfg.Sync.FromBlock = o.FromBlock
	}
	if o.UntilBlock > 0 {
		cfg.Sync.UntilBlock = o.UntilBlock
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) error {
	rpc := steem.NewRPCClient(steem.NewHTTPTransport(cfg.RPC.URL, cfg.RPC.RPS), metrics.NewRPCClient("steem"))
	source := steem.NewSource(rpc)

	var broadcaster synchronizer.Broadcaster
	if cfg.Signer.DryRun || cfg.Signer.URL == "" {
		logger.Warn("dry run: votes and confirmations are not broadcast")
		broadcaster = steem.NewDryRunBroadcaster(logger.Named("dryRun"))
	} else {
		signer := steem.NewHTTPTransport(cfg.Signer.URL, 0)
		broadcaster = steem.NewSignerBroadcaster(signer, cfg.Delegator, metrics.NewRPCClient("signer"))
	}

	var (
		repo    *clickhouse.Repository
		journal synchronizer.Journal
		store   transport.DecisionStore
	)
	if cfg.Clickhouse.DSN != "" {
		var err error
		repo, err = clickhouse.NewRepository(cfg.Clickhouse.DSN, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init repository: %w", err)
		}
		defer func() {
			_ = repo.Close()
		}()
		journal, store = repo, repo
	}

	resumeFrom, err := resumePoint(ctx, cfg, repo, logger)
	if err != nil {
		return err
	}

	daemon, err := synchronizer.NewDaemon(
		synchronizer.Options{
			Delegator:       cfg.Delegator,
			Concurrency:     cfg.Sync.Concurrency,
			HistoryPageSize: cfg.Sync.HistoryPageSize,
			HistoryDepth:    cfg.Sync.HistoryDepth,
			PollInterval:    cfg.Sync.PollInterval,
			RetryTimeout:    cfg.Sync.RetryTimeout,
			UntilBlock:      cfg.Sync.UntilBlock,
		},
		source,
		broadcaster,
		synchronizer.NewLogObserver(logger.Named("synchronizer")),
		metrics.NewSynchronizer(cfg.Delegator),
		journal,
		logger,
	)
	if err != nil {
		return fmt.Errorf("init synchronizer: %w", err)
	}

	if cfg.Metrics.Addr != "" {
		serveHTTP(ctx, cfg.Metrics.Addr, transport.NewStatusHandler(cfg.Delegator, daemon, store, logger.Named("status")), logger)
	}

	logger.Info("starting synchronizer", zap.String("run_id", daemon.RunID()), zap.Stringer("resume_from", resumeFrom))
	return daemon.Run(ctx, resumeFrom)
}

// resumePoint picks the explicit start block, then the stored cursor, then
// the current head.
func resumePoint(ctx context.Context, cfg *appconfig.Config, repo *clickhouse.Repository, logger *zap.Logger) (model.Moment, error) {
	if cfg.Sync.FromBlock > 0 {
		return model.BlockStart(cfg.Sync.FromBlock), nil
	}
	if repo == nil {
		return model.Now, nil
	}
	cursor, err := repo.LoadCursor(ctx, cfg.Delegator)
	if errors.Is(err, clickhouse.ErrCursorNotFound) {
		logger.Info("no stored cursor, starting at head")
		return model.Now, nil
	}
	if err != nil {
		return model.Moment{}, fmt.Errorf("load cursor: %w", err)
	}
	return cursor, nil
}

func serveHTTP(ctx context.Context, addr string, status http.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", status)

	s := &http.Server{
		Addr:              addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to listen and serve", zap.Error(err))
		}
	}()
}
