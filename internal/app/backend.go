package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/meal-roster/internal/store"
)

// OpenBackend returns the record backend selected by cfg.StoreBackend, with
// a function releasing its connections.
func OpenBackend(ctx context.Context, cfg *Config, log *zap.Logger) (store.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case BackendMemory:
		log.Warn("using in-memory store, records are lost on restart")
		return store.NewMemoryBackend(), noop, nil

	case BackendFile:
		log.Info("using file store", zap.String("path", cfg.DataFile), zap.Int("backups", cfg.BackupKeep))
		return store.NewFileBackend(cfg.DataFile, cfg.BackupKeep, log), noop, nil

	case BackendRedis:
		client, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis store", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Redis.Key))
		return store.NewRedisBackend(client, cfg.Redis.Key), client.Close, nil

	case BackendMinio:
		mb, err := store.NewMinioBackend(ctx, store.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Object:    cfg.Minio.Object,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("using minio store", zap.String("endpoint", cfg.Minio.Endpoint), zap.String("bucket", cfg.Minio.Bucket))
		return mb, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// NewNotifier returns an AMQP notifier when a broker is configured and a
// log notifier otherwise.
func NewNotifier(cfg *Config, log *zap.Logger) (Notifier, func() error, error) {
	if cfg.AMQP.URL == "" {
		return LogNotifier{Log: log}, func() error { return nil }, nil
	}
	n, err := DialAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("publishing reminders to rabbitmq", zap.String("queue", cfg.AMQP.Queue))
	return n, n.Close, nil
}
