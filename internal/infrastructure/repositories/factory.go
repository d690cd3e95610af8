package repositories

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stagecast/internal/core/ports"
	"stagecast/internal/infrastructure/repositories/memory"
	"stagecast/internal/infrastructure/repositories/redis"
	"stagecast/pkg/config"
)

// Factory wires the persistence layer: Redis-backed repositories when Redis
// is enabled and reachable, in-memory otherwise. A failed Redis connection
// degrades to memory instead of refusing to start.
type Factory struct {
	Streams ports.StreamRepository
	Audit   ports.AuditRepository
	Ledger  ports.LedgerStore

	client *goredis.Client
	logger *zap.Logger
}

func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	f := &Factory{logger: logger}

	if cfg.Redis.Enabled {
		client, err := redis.NewRedisClient(redis.ClientConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory repositories",
				zap.String("address", cfg.Redis.Address),
				zap.Error(err))
		} else {
			logger.Info("using redis repositories", zap.String("address", cfg.Redis.Address))
			f.client = client
			f.Streams = redis.NewRedisStreamRepository(client)
			f.Audit = redis.NewRedisAuditRepository(client)
			f.Ledger = redis.NewRedisLedgerStore(client, cfg.Ledger.Currency)
			return f
		}
	}

	logger.Info("using in-memory repositories")
	f.Streams = memory.NewMemoryStreamRepository()
	f.Audit = memory.NewMemoryAuditRepository()
	f.Ledger = memory.NewMemoryLedgerStore(cfg.Ledger.Currency)
	return f
}

func (f *Factory) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
