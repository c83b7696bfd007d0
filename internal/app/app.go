// Package app wires configuration, storage, locks and domain services into a
// runnable HTTP application. cmd binaries and end-to-end tests share it.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"reservecore/internal/config"
	"reservecore/internal/domain/blackout"
	"reservecore/internal/domain/capacity"
	"reservecore/internal/domain/hold"
	"reservecore/internal/domain/resource"
	"reservecore/internal/events"
	"reservecore/internal/lock"
	"reservecore/internal/pkg/calendar"
	"reservecore/internal/pkg/clock"
	"reservecore/internal/pkg/jwt"
)

// Migrate creates or updates every table the reservation core owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&resource.Resource{},
		&blackout.Blackout{},
		&capacity.Capacity{},
		&hold.Hold{},
		&hold.Allocation{},
	)
}

type App struct {
	Config    *config.Config
	DB        *gorm.DB
	JWT       *jwt.Service
	Resources *resource.Service
	Blackouts *blackout.Service
	Capacity  *capacity.Service
	Holds     *hold.Service
	Router    *gin.Engine

	logger  *log.Logger
	closers []io.Closer
}

type Option func(*options)

type options struct {
	clock     clock.Clock
	locks     lock.Provider
	publisher events.Publisher
	logger    *log.Logger
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLocks overrides the lock provider selected from configuration.
func WithLocks(p lock.Provider) Option {
	return func(o *options) { o.locks = p }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the services and router on an already migrated database.
func New(cfg *config.Config, db *gorm.DB, opts ...Option) (*App, error) {
	o := options{clock: clock.NewSystem(), logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cal, err := calendar.Load(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("business timezone: %w", err)
	}

	a := &App{Config: cfg, DB: db, JWT: jwt.New(cfg.JWTSecret, cfg.JWTTTL), logger: o.logger}

	locks := o.locks
	if locks == nil {
		if locks, err = a.newLockProvider(); err != nil {
			return nil, err
		}
	}
	publisher := o.publisher
	if publisher == nil {
		publisher = a.newPublisher()
	}

	a.Resources = resource.NewService(resource.NewRepository(db), o.clock, o.logger)
	a.Blackouts = blackout.NewService(blackout.NewRepository(db), cal, o.logger, blackout.WithResources(a.Resources))
	a.Capacity = capacity.NewService(capacity.NewRepository(db), a.Blackouts, locks, cal,
		capacity.WithClock(o.clock),
		capacity.WithLogger(o.logger),
		capacity.WithResources(a.Resources),
	)
	a.Holds = hold.NewService(hold.NewRepository(db), a.Capacity, cal,
		hold.WithTTL(cfg.HoldTTL),
		hold.WithClock(o.clock),
		hold.WithPublisher(publisher),
		hold.WithLogger(o.logger),
	)
	a.Router = a.newRouter()
	return a, nil
}

// Close releases broker and lock connections. The database is owned by the caller.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = errors.Join(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errs
}

func (a *App) newLockProvider() (lock.Provider, error) {
	switch a.Config.LockBackend {
	case config.LockBackendRedis:
		opt, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		a.closers = append(a.closers, client)
		a.logger.Printf("lock_backend=redis addr=%s ttl=%s", opt.Addr, a.Config.LockTTL)
		return lock.NewRedis(client, lock.WithTTL(a.Config.LockTTL), lock.WithLogger(a.logger)), nil
	default:
		a.logger.Printf("lock_backend=memory (single process only)")
		return lock.NewMemory(), nil
	}
}

func (a *App) newPublisher() events.Publisher {
	if len(a.Config.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	k := events.NewKafka(a.Config.KafkaBrokers, a.Config.KafkaTopic, a.logger)
	a.closers = append(a.closers, k)
	a.logger.Printf("events_publisher=kafka brokers=%v topic=%s", a.Config.KafkaBrokers, a.Config.KafkaTopic)
	return k
}
