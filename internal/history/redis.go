package history

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
)

const redisKeyPrefix = "lottery-hub:sent:"

// RedisLedger keeps the delivered keys in Redis so several trigger servers
// share one view. Keys expire after the configured TTL.
type RedisLedger struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func OpenRedis(cfg config.HistoryConfig, logger *zap.Logger) (*RedisLedger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   1,
		DialTimeout:  cfg.Redis.Timeout,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperr.Fetch(err, "connect to redis at %s", cfg.Redis.Address)
	}

	return &RedisLedger{
		client:  client,
		ttl:     cfg.TTL,
		timeout: cfg.Redis.Timeout,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Seen treats an unreachable Redis as "not sent": a duplicate notification
// is preferred over a lost one.
func (l *RedisLedger) Seen(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	n, err := l.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		l.logger.Warn("Failed to query history", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}

func (l *RedisLedger) Record(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	value, err := sonic.Marshal(entry{Key: key, SentAt: l.now().UTC()})
	if err != nil {
		return apperr.Parse(err, "encode history entry")
	}
	if err := l.client.Set(ctx, redisKeyPrefix+key, value, l.ttl).Err(); err != nil {
		return apperr.Delivery(err, "record %s in redis", key)
	}

	l.logger.Debug("Notification recorded", zap.String("key", key))
	return nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
