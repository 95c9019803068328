package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/ksheermitra/backend/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrLockHeld is returned when another replica is running the same job.
var ErrLockHeld = errors.New("job_lock_held")

// Locker grants exclusive runs of a job across replicas.
type Locker interface {
	// Acquire returns ErrLockHeld when the key is taken. The returned
	// release func must be called once the run is over.
	Acquire(ctx context.Context, key string, expiry time.Duration) (func(context.Context) error, error)
}

// NewRedisClient returns nil when REDIS_ADDR is not set.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

// NewLocker returns nil without a redis client; jobs then run unguarded.
func NewLocker(client *redis.Client) Locker {
	if client == nil {
		return nil
	}
	return &redsyncLocker{rs: redsync.New(goredis.NewPool(client))}
}

func (l *redsyncLocker) Acquire(ctx context.Context, key string, expiry time.Duration) (func(context.Context) error, error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(expiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, ErrLockHeld
		}
		return nil, err
	}
	return func(ctx context.Context) error {
		_, err := mutex.UnlockContext(ctx)
		return err
	}, nil
}

func lockKey(job, period string) string {
	return "scheduler:" + job + ":" + period
}
