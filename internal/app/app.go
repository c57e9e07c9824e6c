// Package app wires configuration, storage, services and the HTTP server
// into a runnable process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/turf-booking/internal/config"
	"github.com/iliyamo/turf-booking/internal/database"
	"github.com/iliyamo/turf-booking/internal/handler"
	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/queue"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/router"
	"github.com/iliyamo/turf-booking/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	bookingLogPath  = "logs/booking.log"
)

// App is the assembled service.
type App struct {
	cfg      config.Config
	log      zerolog.Logger
	db       *sql.DB
	rdb      *redis.Client
	e        *echo.Echo
	auth     *service.AuthService
	consumer *queue.Consumer
}

// New connects to MySQL (and Redis when reachable), builds the services
// and registers every route.
func New(cfg config.Config, log zerolog.Logger) (*App, error) {
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("rate limit config: %w", err)
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	qCfg, err := config.LoadQueueConfig()
	if err != nil {
		return nil, fmt.Errorf("queue config: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; rate limiting and caching disabled")
	}

	trManager := manager.Must(trmsql.NewDefaultFactory(db))
	getter := trmsql.DefaultCtxGetter

	users := repository.NewUserRepo(db, getter)
	sessions := repository.NewSessionRepo(db, getter)
	turfs := repository.NewTurfRepo(db, getter)
	bookings := repository.NewBookingRepo(db, getter)

	cache := middleware.NewResponseCache(cacheCfg, rdb, log)
	publisher := queue.NewPublisher(qCfg.BrokerURL(), log)

	authSvc := service.NewAuthService(users, sessions, cfg.SessionSecret,
		time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.BcryptCost, log)
	bookingSvc := service.NewBookingService(trManager, users, turfs, bookings, publisher, log)
	bookingSvc.SetLocation(loc)
	adminSvc := service.NewAdminService(trManager, turfs, bookings, cache, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	session := middleware.RequireSession(authSvc, log)
	limit := middleware.NewTokenBucket(rlCfg, rdb, log)
	loginLimit := middleware.NewTokenBucket(rlCfg.ForLogin(), rdb, log)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, cfg.IsProd(), log), loginLimit)
	router.RegisterUser(e, handler.NewBookingHandler(bookingSvc, log), session, limit, cache.Middleware())
	router.RegisterAdmin(e, handler.NewAdminHandler(adminSvc, log), session, limit)

	a := &App{cfg: cfg, log: log, db: db, rdb: rdb, e: e, auth: authSvc}
	if cfg.ConsumerEnabled {
		a.consumer = queue.NewConsumer(qCfg.BrokerURL(), bookingLogPath, log)
	}
	return a, nil
}

// Run migrates the schema, bootstraps the admin account and serves until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := database.Migrate(ctx, a.db); err != nil {
		return err
	}
	if err := a.auth.EnsureAdmin(ctx, a.cfg.AdminUsername, a.cfg.AdminPassword); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("starting server")
		if err := a.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			a.log.Info().Str("file", bookingLogPath).Msg("starting booking consumer")
			if err := a.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.e.Shutdown(sctx); err != nil {
			a.log.Error().Err(err).Msg("error stopping server")
			return err
		}
		return nil
	})

	return g.Wait()
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.db.Close()
}
