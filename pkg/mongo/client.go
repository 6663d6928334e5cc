package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultConnectTimeout = 5 * time.Second
	pingTimeout           = 2 * time.Second
)

// Client wraps the driver client and the configured database.
type Client struct {
	raw *mongo.Client
	db  *mongo.Database
}

// New connects to MongoDB and verifies the primary is reachable.
func New(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database is required")
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetSocketTimeout(2 * timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 2*timeout)
	defer cancel()

	raw, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	client := &Client{raw: raw, db: raw.Database(cfg.Database)}
	if err := client.Ping(ctx); err != nil {
		_ = raw.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "database", cfg.Database), "mongo connection established")
	}
	return client, nil
}

// Database returns the configured database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping checks the primary with a short timeout.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("mongo client not initialized")
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.raw.Ping(pingCtx, readpref.Primary())
}

// Close disconnects the driver client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Disconnect(ctx)
}
