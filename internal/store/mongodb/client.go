// Package mongodb provides the Mongo-backed visitation log and record store.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config controls the Mongo connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Client wraps one Mongo connection scoped to a database. It is constructed
// once per run and passed into the stores; there is no package-level handle.
type Client struct {
	cli *mongo.Client
	db  *mongo.Database
}

// Dial connects and pings the deployment. An unreachable store is a fatal
// startup error, so the ping failure is surfaced rather than deferred.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo.uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo.database is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cli, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := cli.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Client{cli: cli, db: cli.Database(cfg.Database)}, nil
}

// Ping checks that the deployment is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.cli.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	if err := c.cli.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// VisitLog returns a purpose-scoped visitation log over collection.
func (c *Client) VisitLog(collection, purpose string) *VisitLog {
	return &VisitLog{coll: c.db.Collection(collection), purpose: purpose}
}

// Records returns a record store over collection.
func (c *Client) Records(collection string) *RecordStore {
	return &RecordStore{coll: c.db.Collection(collection)}
}
