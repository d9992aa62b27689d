package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"raceconnect/config"
	"raceconnect/db"
	"raceconnect/metrics"
	"raceconnect/middlewares"
	"raceconnect/models"
	"raceconnect/routes"
	"raceconnect/utils"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	mongo      *mongo.Client
	redis      *redis.Client
	httpServer *http.Server
}

// New connects the document store (and Redis when configured) and wires the
// HTTP server. Nothing is listening until Run.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	client, err := db.Connect(ctx, cfg.DatabaseURI())
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	a.mongo = client
	database := client.Database(cfg.DBName)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		a.close()
		return nil, err
	}
	log.Info().Str("database", cfg.DBName).Msg("document store connected")

	var denylist utils.Denylist
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		denylist = utils.NewRedisDenylist(a.redis)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected, response cache and token revocation on")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, response cache and token revocation off")
	}

	tokens, err := utils.NewTokenService(cfg.SecretKey, denylist)
	if err != nil {
		a.close()
		return nil, err
	}

	deps := routes.Deps{
		Marathons:      models.NewMongoMarathonRepository(database.Collection(db.MarathonsCollection), cfg.StoreTimeout),
		Registrations:  models.NewMongoRegistrationRepository(database.Collection(db.RegistrationsCollection), cfg.StoreTimeout),
		Tokens:         tokens,
		Cookies:        utils.NewCookieOptions(cfg.IsProduction()),
		CacheTTL:       cfg.CacheTTL,
		UpsertOnUpdate: cfg.UpsertOnUpdate,
	}
	if a.redis != nil {
		deps.Redis = a.redis
		deps.Invalidator = utils.NewCacheInvalidator(a.redis)
	}

	a.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, log, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg *config.Config, log zerolog.Logger, deps routes.Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middlewares.RequestID(log),
		middlewares.RequestLogger(),
		metrics.Middleware(),
		middlewares.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{middlewares.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	routes.RegisterRoutes(r, deps)
	return r
}

// Run serves until SIGINT/SIGTERM or ctx is done, then drains in-flight
// requests and closes the store connections.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.httpServer.Addr).Msg("RaceConnect is running")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.log.Info().Msg("server stopped")
	return nil
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Error().Err(err).Msg("mongo disconnect")
		}
		a.mongo = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error().Err(err).Msg("redis close")
		}
		a.redis = nil
	}
}
