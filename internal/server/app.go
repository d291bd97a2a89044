// Package server wires the vendorverify service together: storage, the
// verification engine, the product and report services and the gRPC and
// HTTP transports, and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/config"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/events"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/geo"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/httpapi"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/lifecycle"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/metrics"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/qr"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/repomanager"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/services"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	gs "github.com/civoranexus/FSD117-PYxMAFIA/internal/server/grpc"
)

const geoLookupTimeout = 2 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	registry *prometheus.Registry

	engine          *verification.Engine
	productService  *services.ProductService
	fakeReportsServ *services.FakeReportService

	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger, registry: prometheus.NewRegistry()}

	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mm := metrics.NewMetricsManager(app.registry)

	db, rm, tx, err := app.initStorage(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	renderer, err := app.initRenderer(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	publisher := app.initPublisher()

	// A nil *sql.DB must not reach the services as a non-nil DBTX.
	var dbtx dbx.DBTX
	if db != nil {
		dbtx = db
	}

	app.engine = verification.NewEngine(verification.Dependencies{
		Products:  rm.Products(dbtx),
		Scans:     rm.Scans(dbtx),
		Geo:       app.initResolver(),
		Machine:   lifecycle.NewMachine(),
		Publisher: publisher,
		Metrics:   mm,
		Logger:    logger,
		Thresholds: verification.Thresholds{
			Window:          c.DetectionWindow,
			Burst:           c.BurstThreshold,
			UniqueSources:   c.UniqueSourceThreshold,
			UniqueLocations: c.UniqueLocationThreshold,
			PostUse:         c.PostUseThreshold,
			HistoryLimit:    c.HistoryReadLimit,
		},
	})
	app.productService = services.NewProductService(dbtx, rm, renderer, mm, logger, c).WithPublisher(publisher)
	app.fakeReportsServ = services.NewFakeReportService(tx, rm, logger)

	return app, nil
}

func (app *App) initStorage(ctx context.Context) (*sql.DB, repomanager.RepositoryManager, dbx.Transactor, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "no database configured, using in-memory stores")
		return nil, repomanager.NewInMemoryRepositoryManager(), &dbx.LockTransactor{}, nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db open error: %w", err)
	}
	app.closers = append(app.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return db, rm, dbx.NewSQLTransactor(db, nil), nil
}

func (app *App) initRenderer(ctx context.Context) (qr.Renderer, error) {
	c := app.config
	if c.S3Bucket == "" || c.S3BaseEndpoint == "" {
		app.logger.Warn(ctx, "object storage not configured, QR codes are returned inline")
		return qr.InlineRenderer{PayloadPrefix: c.QRPayloadPrefix}, nil
	}

	client, err := qr.NewS3Client(ctx, c.S3Region, c.S3RootUser, c.S3RootPassword, c.S3BaseEndpoint)
	if err != nil {
		return nil, fmt.Errorf("s3 client error: %w", err)
	}
	return qr.NewS3Renderer(client, c.S3Bucket, c.S3PublicBaseURL, c.QRPayloadPrefix), nil
}

func (app *App) initResolver() geo.Resolver {
	c := app.config
	if c.GeoEndpoint == "" {
		return geo.StaticResolver{}
	}

	var cache geo.Cache
	switch c.GeoCacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, client.Close)
		cache = geo.NewRedisCache(client)
	case "memory":
		cache = geo.NewMemoryCache(c.GeoCacheTTL)
	}

	return geo.NewCachedResolver(geo.NewHTTPResolver(c.GeoEndpoint, geoLookupTimeout), cache, c.GeoCacheTTL, app.logger)
}

func (app *App) initPublisher() events.Publisher {
	c := app.config
	if len(c.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}

	p := events.NewKafkaPublisher(c.KafkaBrokers, c.KafkaTopic, []byte(c.SecretKey))
	app.closers = append(app.closers, p.Close)
	return p
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error(context.Background(), "close error", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.engine, app.productService, app.fakeReportsServ, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	proxies, err := httpapi.ParseTrustedProxies(app.config.TrustedProxies)
	if err != nil {
		app.logger.Error(ctx, "invalid trusted proxy list", "error", err)
		cancelFunc()
		return
	}

	h := httpapi.NewHTTPHandler(app.engine, app.productService, app.fakeReportsServ, app.logger).WithTrustedProxies(proxies)
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, httpapi.NewRouter(h, app.registry, app.logger), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}
