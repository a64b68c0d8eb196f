package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/events"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/ledger"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/media"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/productapi"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	decimal.MarshalJSONWithoutQuotes = true

	logger, err := logx.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	repo := &ledger.Repo{DB: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("ledger schema", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic. They run on their own context so the
	// inbox still drains after the signal.
	pctx, pcancel := context.WithCancel(context.Background())
	defer pcancel()
	productEvents := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicProductChanged, 1024, logger)
	productEvents.Start(pctx)
	checkoutEvents := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicCheckoutComposed, 1024, logger)
	checkoutEvents.Start(pctx)

	limits := cart.Limits{MaxItemQuantity: cfg.MaxItemQuantity, MaxCartItems: cfg.MaxCartItems}
	products := productapi.New(cfg.BackendURL, cfg.BackendTimeout)
	productCache := redisx.NewProductCache(rdb)
	carts := redisx.NewCartStore(rdb, limits, logger.Named("cart"))
	pincodes := checkout.NewPincodeResolver(cfg.PincodeAPIURL, &http.Client{Timeout: 3 * time.Second},
		redisx.NewPincodeCache(rdb), logger.Named("pincode"))
	uploader := media.NewUploader(media.Config{
		Endpoint:  cfg.MediaEndpoint,
		CloudName: cfg.MediaCloudName,
		Preset:    cfg.MediaPreset,
	}, &http.Client{}, logger.Named("media"))

	reader := &httpx.CatalogReader{Products: products, Cache: productCache, Log: logger}
	router := httpx.NewRouter()
	(&httpx.CatalogHandler{Reader: reader, Log: logger}).Register(router)
	(&httpx.CartHandler{Store: carts, Reader: reader, Log: logger}).Register(router)
	(&httpx.CheckoutHandler{
		Store: carts,
		Service: &checkout.Service{
			ContactPhone: cfg.ContactPhone,
			Pincodes:     pincodes,
			Ledger:       repo,
			Events:       checkoutEvents,
			ServiceName:  cfg.ServiceName,
			Log:          logger.Named("checkout"),
		},
		Pincodes: pincodes,
		Ledger:   repo,
		Log:      logger,
	}).Register(router)
	(&httpx.AdminHandler{
		Products:      products,
		Cache:         productCache,
		Events:        productEvents,
		Uploader:      uploader,
		UploadTimeout: cfg.UploadTimeout,
		Service:       cfg.ServiceName,
		Log:           logger.Named("admin"),
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server exit", zap.Error(err))
	}

	productEvents.Close()
	checkoutEvents.Close()
	productEvents.WaitClosed()
	checkoutEvents.WaitClosed()
}
