// Package bootstrap wires the stores and services shared by the api and the cron worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orderdesk/internal/auth"
	"github.com/angelmondragon/orderdesk/internal/clients"
	"github.com/angelmondragon/orderdesk/internal/orders"
	"github.com/angelmondragon/orderdesk/internal/products"
	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/internal/transfer"
	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/db"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/angelmondragon/orderdesk/pkg/migrate"
	pkgmongo "github.com/angelmondragon/orderdesk/pkg/mongo"
	"github.com/angelmondragon/orderdesk/pkg/storage/s3"
)

// Pinger is a dependency the readiness check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores holds the repositories for the configured driver.
type Stores struct {
	Driver   string
	Clients  clients.Repository
	Products products.Repository
	Orders   orders.Repository
	Pinger   Pinger

	closers []func(context.Context) error
}

// OpenStores connects to postgres, sqlite or mongo according to cfg.Store.Driver.
func OpenStores(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stores, error) {
	if cfg.Store.UsesSQL() {
		return openSQL(ctx, cfg, logg)
	}
	return openMongo(ctx, cfg, logg)
}

func openSQL(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stores, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	conn := dbClient.DB()
	return &Stores{
		Driver:   dbClient.Driver(),
		Clients:  clients.NewRepository(conn),
		Products: products.NewRepository(conn),
		Orders:   orders.NewRepository(conn),
		Pinger:   dbClient,
		closers:  []func(context.Context) error{func(context.Context) error { return dbClient.Close() }},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stores, error) {
	client, err := pkgmongo.New(ctx, cfg.Mongo, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap mongo: %w", err)
	}
	database := client.Database()
	indexErr := multierr.Combine(
		clients.EnsureMongoIndexes(ctx, database),
		products.EnsureMongoIndexes(ctx, database),
		orders.EnsureMongoIndexes(ctx, database),
	)
	if indexErr != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("ensure mongo indexes: %w", indexErr)
	}
	return &Stores{
		Driver:   config.StoreDriverMongo,
		Clients:  clients.NewMongoRepository(database),
		Products: products.NewMongoRepository(database),
		Orders:   orders.NewMongoRepository(database),
		Pinger:   client,
		closers:  []func(context.Context) error{client.Close},
	}, nil
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close(ctx context.Context) error {
	var errs error
	for _, closeFn := range s.closers {
		errs = multierr.Append(errs, closeFn(ctx))
	}
	return errs
}

// OpenBlob returns the S3 client when blob storage is configured, or nil.
func OpenBlob(ctx context.Context, cfg config.BlobConfig, logg *logger.Logger) (*s3.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := s3.NewClient(cfg, logg)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return client, nil
}

// Services is the full domain layer.
type Services struct {
	Auth     auth.Service
	Clients  clients.Service
	Products products.Service
	Orders   orders.Service
	Transfer *transfer.Service
}

// ServicesParams wires NewServices. Blob and Registerer are optional.
type ServicesParams struct {
	Config     *config.Config
	Stores     *Stores
	Blob       *s3.Client
	Logger     *logger.Logger
	Registerer prometheus.Registerer
}

func NewServices(p ServicesParams) (*Services, error) {
	cfg := p.Config
	opts := suggest.Options{
		MinQueryLength: cfg.Suggest.MinQueryLength,
		Threshold:      cfg.Suggest.Threshold,
		Limit:          cfg.Suggest.Limit,
	}

	clientSvc, err := clients.NewService(p.Stores.Clients, opts)
	if err != nil {
		return nil, err
	}
	productSvc, err := products.NewService(p.Stores.Products, opts)
	if err != nil {
		return nil, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:     p.Stores.Orders,
		Clients:  clientSvc,
		Products: productSvc,
		Logger:   p.Logger,
		Metrics:  metrics.NewOrderMetrics(p.Registerer),
	})
	if err != nil {
		return nil, err
	}

	var blob transfer.BlobStore
	if p.Blob != nil {
		blob = p.Blob
	}
	transferSvc, err := transfer.NewService(transfer.ServiceParams{
		Clients:  clientSvc,
		Products: productSvc,
		Orders:   orderSvc,
		Blob:     blob,
		Location: cfg.Transfer.Location(),
		Logger:   p.Logger,
	})
	if err != nil {
		return nil, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		Staff:     cfg.Staff,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:     authSvc,
		Clients:  clientSvc,
		Products: productSvc,
		Orders:   orderSvc,
		Transfer: transferSvc,
	}, nil
}
