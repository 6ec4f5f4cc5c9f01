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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/codeRisshi25/flowai/internal/app/receiverhttp"
	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/config"
	"github.com/codeRisshi25/flowai/internal/janitor"
	"github.com/codeRisshi25/flowai/internal/logging"
	"github.com/codeRisshi25/flowai/internal/metrics"
	"github.com/codeRisshi25/flowai/internal/notify"
	"github.com/codeRisshi25/flowai/internal/placement"
	"github.com/codeRisshi25/flowai/internal/repo/journal"
	"github.com/codeRisshi25/flowai/internal/staging"
)

const shutdownTimeout = 15 * time.Second

// main поднимает receiver и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("init logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("receiver stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	store, err := chunkfs.Open(cfg.UploadsDir)
	if err != nil {
		return err
	}

	policy, err := placement.ParsePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	observers := []placement.Observer{m}

	var jr journal.Journal
	if cfg.JournalDSN != "" {
		jr, err = journal.Open(ctx, cfg.JournalDSN)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jr.Close()
		observers = append(observers, jr)
	}

	if cfg.RedisAddr != "" {
		pub, err := notify.NewRedisPublisher(cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return err
		}
		defer pub.Close()
		observers = append(observers, pub)
	}

	engine := placement.New(placement.Deps{
		Store:         store,
		Policy:        policy,
		Observers:     observers,
		Logger:        log,
		MaxConcurrent: cfg.MaxConcurrentPlacements,
	})

	jan := janitor.New(store, cfg.StagingTTL, log)
	stopJanitor := jan.Start(cfg.JanitorInterval)
	defer stopJanitor()

	handler := receiverhttp.New(receiverhttp.Deps{
		Store:       store,
		Intake:      staging.New(store, cfg.MaxChunkBytes, log),
		Engine:      engine,
		Janitor:     jan,
		Metrics:     m,
		Gatherer:    reg,
		Journal:     jr,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":             cfg.ListenAddr,
			"uploads_dir":      store.Root(),
			"duplicate_policy": string(policy),
			"journal":          jr != nil,
			"redis":            cfg.RedisAddr != "",
		}).Info("receiver listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("receiver stopped")
		return nil
	})

	return g.Wait()
}
