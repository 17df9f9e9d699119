package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/restock/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/restock/internal/crawler"
	"github.com/jonesrussell/north-cloud/restock/internal/database"
	"github.com/jonesrussell/north-cloud/restock/internal/extractor"
	"github.com/jonesrussell/north-cloud/restock/internal/frontier"
	"github.com/jonesrussell/north-cloud/restock/internal/notify"
)

// Closer releases a resource opened by the factory.
type Closer func()

// OpenDatabase connects to PostgreSQL.
func (d *CommandDeps) OpenDatabase(ctx context.Context) (*sqlx.DB, Closer, error) {
	db, err := database.NewPostgresConnection(ctx, d.Config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	d.Logger.Debug("Connected to database",
		logger.String("host", d.Config.Database.Host),
		logger.String("dbname", d.Config.Database.DBName),
	)
	return db, func() {
		if closeErr := db.Close(); closeErr != nil {
			d.Logger.Warn("Failed to close database", logger.Error(closeErr))
		}
	}, nil
}

// OpenStore connects to PostgreSQL and returns the product store.
func (d *CommandDeps) OpenStore(ctx context.Context) (*database.Store, *sqlx.DB, Closer, error) {
	db, closeDB, err := d.OpenDatabase(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return database.NewStore(db), db, closeDB, nil
}

// NewCrawler builds the colly crawler with the catalog link policy and
// selectors.
func (d *CommandDeps) NewCrawler() (*crawler.Crawler, error) {
	f, err := frontier.New(d.Config.Catalog.Allow, d.Config.Catalog.Deny)
	if err != nil {
		return nil, fmt.Errorf("build link frontier: %w", err)
	}
	ext := extractor.New(d.Config.Catalog.Selectors, d.Logger)
	return crawler.New(d.Config.Crawler, ext, f, d.Logger), nil
}

// OpenRedis connects to Redis when it is enabled. The client is nil otherwise.
func (d *CommandDeps) OpenRedis(ctx context.Context) (*goredis.Client, Closer, error) {
	if !d.Config.Redis.Enabled {
		return nil, func() {}, nil
	}

	client, err := infraredis.NewClient(ctx, d.Config.Redis.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, func() {
		if closeErr := client.Close(); closeErr != nil && !errors.Is(closeErr, goredis.ErrClosed) {
			d.Logger.Warn("Failed to close redis", logger.Error(closeErr))
		}
	}, nil
}

// NewNotifier builds the notifier. A dry run logs messages instead of
// sending them. A Redis client, when given, suppresses repeated sends of
// one transition.
func (d *CommandDeps) NewNotifier(dryRun bool, redisClient *goredis.Client) (*notify.Notifier, error) {
	var opts []notify.Option
	if redisClient != nil {
		opts = append(opts, notify.WithTracker(
			notify.NewRedisTracker(redisClient, d.Config.Redis.DedupTTL, d.Logger),
		))
	}

	channel := d.Config.Telegram.ChannelID
	if dryRun {
		if channel == "" {
			channel = "dry-run"
		}
		return notify.NewNotifier(notify.NewLogTransport(d.Logger), channel, d.Logger, opts...), nil
	}

	if err := d.Config.ValidateNotify(); err != nil {
		return nil, fmt.Errorf("telegram not configured (use --dry-run to log messages instead): %w", err)
	}
	transport := notify.NewTelegramTransport(d.Config.Telegram, d.Logger)
	return notify.NewNotifier(transport, channel, d.Logger, opts...), nil
}
