package blob

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/pipecenter/pipecenter-api/internal/config"
	"github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/internal/infrastructure/database"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Closer releases the connections held by a backend
type Closer func() error

func noopCloser() error { return nil }

// NewFromConfig builds the BlobStore named by cfg.Storage.Backend. The
// backend is chosen by configuration only; a failing backend is an error,
// never a silent fallback to memory.
func NewFromConfig(ctx context.Context, cfg *config.Config, log *logrus.Logger) (repository.BlobStore, Closer, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), noopCloser, nil

	case config.BackendBlob:
		if !cfg.Blob.HasBlobToken() {
			return nil, nil, fmt.Errorf("storage backend %q requires BLOB_READ_WRITE_TOKEN", config.BackendBlob)
		}
		return NewRemoteStore(cfg.Blob.BaseURL, cfg.Blob.Token, cfg.Blob.Timeout), noopCloser, nil

	case config.BackendRedis:
		cli, err := redisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(cli, cfg.Redis.KeyPrefix), cli.Close, nil

	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.AutoMigrate(db, log); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(db), sqlDB.Close, nil

	case config.BackendDynamoDB:
		cli, err := dynamoClient(ctx, &cfg.DynamoDB)
		if err != nil {
			return nil, nil, err
		}
		return NewDynamoDBStore(cfg.DynamoDB.Table, cli), noopCloser, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// redisClient creates a Redis client and checks it is reachable
func redisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if cfg.TLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cli := redis.NewClient(&redis.Options{
		Addr:      fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Username:  cfg.User,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConfig,
	})
	if _, err := cli.Ping(ctx).Result(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return cli, nil
}

// dynamoClient creates a DynamoDB client. A custom endpoint (DynamoDB Local)
// gets static dummy credentials.
func dynamoClient(ctx context.Context, cfg *config.DynamoDBConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.Credentials = credentials.NewStaticCredentialsProvider("x", "x", "")
		}
	}), nil
}
