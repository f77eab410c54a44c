package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendS3     = "s3"
)

// Config selects and configures a backend for Open.
type Config struct {
	// Backend is one of memory, file, redis, sql, s3 (default: memory).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Path is the FileStore path.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Redis settings.
	RedisAddr     string        `json:"redisAddr,omitempty" yaml:"redisAddr,omitempty"`
	RedisPassword string        `json:"redisPassword,omitempty" yaml:"redisPassword,omitempty"`
	RedisDB       int           `json:"redisDB,omitempty" yaml:"redisDB,omitempty"`
	RedisTTL      time.Duration `json:"redisTTL,omitempty" yaml:"redisTTL,omitempty"`

	// SQL settings. The driver must be registered by the caller.
	SQLDriver string `json:"sqlDriver,omitempty" yaml:"sqlDriver,omitempty"`
	SQLDSN    string `json:"sqlDSN,omitempty" yaml:"sqlDSN,omitempty"`
	SQLTable  string `json:"sqlTable,omitempty" yaml:"sqlTable,omitempty"`

	// S3 settings. Credentials come from the default AWS chain.
	S3Bucket string `json:"s3Bucket,omitempty" yaml:"s3Bucket,omitempty"`
	S3Region string `json:"s3Region,omitempty" yaml:"s3Region,omitempty"`

	// Prefix namespaces keys for redis and s3.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Open builds the backend described by cfg. The returned store owns any
// connection it opened and releases it on Close.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil

	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage: file backend needs a path")
		}
		return NewFileStore(cfg.Path), nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("storage: redis ping %s: %w", cfg.RedisAddr, err)
		}
		opts := []RedisStoreOption{WithRedisTTL(cfg.RedisTTL)}
		if cfg.Prefix != "" {
			opts = append(opts, WithRedisPrefix(cfg.Prefix))
		}
		return &ownedRedis{RedisStore: NewRedisStore(client, opts...), client: client}, nil

	case BackendSQL:
		dialect, err := ParseDialect(cfg.SQLDriver)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open(cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open %s: %w", cfg.SQLDriver, err)
		}
		opts := []SQLStoreOption{WithSQLDialect(dialect)}
		if cfg.SQLTable != "" {
			opts = append(opts, WithSQLTableName(cfg.SQLTable))
		}
		store := NewSQLStore(db, opts...)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: ensure schema: %w", err)
		}
		return &ownedSQL{SQLStore: store, db: db}, nil

	case BackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("storage: s3 backend needs a bucket")
		}
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.S3Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("storage: load aws config: %w", err)
		}
		var opts []S3StoreOption
		if cfg.Prefix != "" {
			opts = append(opts, WithS3Prefix(cfg.Prefix))
		}
		return NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, opts...), nil
	}

	return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
}

type ownedRedis struct {
	*RedisStore
	client *redis.Client
}

func (o *ownedRedis) Close() error {
	_ = o.RedisStore.Close()
	return o.client.Close()
}

type ownedSQL struct {
	*SQLStore
	db *sql.DB
}

func (o *ownedSQL) Close() error {
	_ = o.SQLStore.Close()
	return o.db.Close()
}
