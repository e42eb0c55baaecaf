package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"
	appinv "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	appstats "github.com/Zhima-Mochi/minishop-commerce/internal/application/statistics"
	"github.com/Zhima-Mochi/minishop-commerce/internal/config"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/catalogcache"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/notify"
	infraobs "github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/rabbitmq"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/sqlstore"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-commerce/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-commerce/internal/presentation/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	systemLogger := zaplogger.New(logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Instruments(prometrics.New("", registry))
	tel := infraobs.New(
		infraobs.WithTracer(oteltrace.New(cfg.ServiceName, nil)),
		infraobs.WithLogger(zaplogger.New(baseLogger)),
		infraobs.WithInstruments(counters, histograms),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, tel)
	if err != nil {
		return err
	}
	defer st.close()

	bus := outbox.NewBus(tel, outbox.WithQueueSize(cfg.BusQueueSize), outbox.WithConcurrency(cfg.BusConcurrency))
	bus.Start(ctx)

	clock := application.Clock(application.SystemClock)
	orderSvc := apporder.NewService(apporder.Deps{
		Carts:       st.carts,
		Catalog:     st.catalog,
		Ledger:      st.ledger,
		Orders:      st.orders,
		IDGenerator: id.UUIDGenerator{},
		Publisher:   bus,
		Clock:       clock,
		Telemetry:   tel,
	})
	invSvc := appinv.NewService(st.catalog, st.ledger, bus, clock, tel)

	if cfg.SeedCatalog {
		if err := seedCatalog(ctx, st.catalog, invSvc); err != nil {
			return err
		}
	}

	sink := notify.NewBreakerSink(notify.NewLogSink(tel.Logger()), notify.BreakerSettings{
		Failures: cfg.NotifyBreakerFailures,
		Timeout:  cfg.NotifyBreakerTimeout,
	}, tel)
	apppayment.NewNotificationWorker(st.orders, notify.DocumentRenderer{}, sink, tel,
		apppayment.WithRetry(cfg.NotifyMaxAttempts, cfg.NotifyBackoff),
	).Start(bus, workerpresentation.Wrap(tel.Logger(), "notification-worker"))
	appinv.NewLowStockWorker(st.ledger, bus, cfg.LowStockThreshold, clock, tel).
		Start(bus, workerpresentation.Wrap(tel.Logger(), "low-stock-worker"))

	if cfg.RabbitMQURL != "" {
		pool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.RabbitMQPoolSize, tel.Logger())
		if err != nil {
			return err
		}
		defer pool.Close()
		names := append([]string{dominv.EventNameRestocked, dominv.EventNameLowStock}, domorder.EventNames...)
		rabbitmq.NewRelay(rabbitmq.NewPublisher(pool), tel).
			Start(bus, workerpresentation.Wrap(tel.Logger(), "event-relay"), names...)
	}

	var workers sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	for _, w := range []interface{ Run(context.Context) }{
		apporder.NewReaperWorker(st.orders, orderSvc.Canceller(), cfg.ReservationTTL, cfg.ReaperInterval, clock, tel),
		apporder.NewFulfillmentWorker(st.orders, bus, cfg.FulfillmentInterval, clock, tel),
	} {
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.Run(workerCtx)
		}()
	}

	handler := httppresentation.NewHandler(httppresentation.Services{
		Cart:       appcart.NewService(st.carts, st.catalog, st.ledger, clock, tel),
		Orders:     orderSvc,
		Statistics: appstats.NewEngine(st.orders, clock, tel),
		Inventory:  invSvc,
	}, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), tel)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("storage", cfg.StorageDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			systemLogger.Error("http_server_error", observability.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.Err(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	stopWorkers()
	workers.Wait()
	bus.Stop(shutdownCtx)
	return nil
}

type stores struct {
	catalog catalog.Store
	ledger  dominv.Ledger
	carts   cart.Repository
	orders  domorder.Repository
	close   func()
}

// openStores picks the storage backend. The catalog is always read through the TTL cache.
func openStores(ctx context.Context, cfg config.Config, tel observability.Observability) (stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		return stores{
			catalog: catalogcache.New(memory.NewCatalog(), cfg.CatalogCacheTTL, tel),
			ledger:  memory.NewInventoryLedger(),
			carts:   memory.NewCartRepository(),
			orders:  memory.NewOrderRepository(),
			close:   func() {},
		}, nil
	}

	db, err := sqlstore.Open(ctx, cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		return stores{}, err
	}
	return stores{
		catalog: catalogcache.New(sqlstore.NewCatalogStore(db), cfg.CatalogCacheTTL, tel),
		ledger:  sqlstore.NewLedger(db),
		carts:   sqlstore.NewCartStore(db),
		orders:  sqlstore.NewOrderStore(db),
		close:   func() { _ = db.Close() },
	}, nil
}
