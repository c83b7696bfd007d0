package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix   = "lock:"
	defaultRedisTTL      = 10 * time.Second
	defaultRedisInterval = 10 * time.Millisecond
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis implements Provider with a SET NX PX lease. The TTL frees keys whose
// holder died without releasing.
type Redis struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	interval time.Duration
	logger   *log.Logger
}

type RedisOption func(*Redis)

func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithRetryInterval sets how often a blocked Acquire polls the key.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = p }
}

func WithLogger(l *log.Logger) RedisOption {
	return func(r *Redis) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:   client,
		prefix:   defaultRedisPrefix,
		ttl:      defaultRedisTTL,
		interval: defaultRedisInterval,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Acquire(ctx context.Context, key string) (Lease, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if r.client == nil {
		return nil, ErrNotReady
	}

	redisKey := r.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLease{owner: r, key: key, redisKey: redisKey, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

type redisLease struct {
	owner    *Redis
	key      string
	redisKey string
	token    string
	released bool
}

func (l *redisLease) Key() string { return l.key }

func (l *redisLease) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	l.released = true

	n, err := releaseScript.Run(ctx, l.owner.client, []string{l.redisKey}, l.token).Int()
	if err != nil {
		l.owner.logger.Printf("lock_release_failed key=%s error=%v", l.key, err)
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if n == 0 {
		l.owner.logger.Printf("lock_lease_lost key=%s ttl=%s", l.key, l.owner.ttl)
		return fmt.Errorf("release lock %s: %w", l.key, ErrLeaseLost)
	}
	return nil
}
