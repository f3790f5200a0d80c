package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const nameCacheEntries = 10000

// App owns every long-lived dependency of the HTTP service. Build it
// once at startup and Close it after the server has shut down.
type App struct {
	cfg       *config.Config
	pool      *database.DatabasePool
	nameCache cache.Cache
	monitor   *monitoring.Monitor
	router    *gin.Engine
}

// OpenDatabase connects to the configured store and applies pending
// migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*database.DatabasePool, error) {
	poolConfig := &database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        database.ParseLogLevel(cfg.Database.LogLevel),
	}

	pool, err := database.NewDatabasePool(poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewNameCache returns the shared owner-name cache, or nil when Redis is
// disabled or unreachable. Without a shared tier names are resolved on
// every read, so a rename made by another process is seen at once.
func NewNameCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if !cfg.Redis.Enabled {
		return nil
	}

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisCache.Health(pingCtx); err != nil {
		log.Printf("Redis unavailable at %s, owner names resolved per read: %v", cfg.GetRedisAddr(), err)
		redisCache.Close()
		return nil
	}

	log.Printf("Redis name cache connected at %s", cfg.GetRedisAddr())
	// L1 only absorbs bursts; invalidation reaches other processes
	// through Redis, so a stale L1 entry lives at most LocalCacheTTL.
	return cache.NewMultiLevelCache(cache.NewMemoryCache(nameCacheEntries), redisCache, cfg.Directory.LocalCacheTTL)
}

// NewDirectory builds the ownerName resolver described by cfg.Directory.
func NewDirectory(cfg *config.Config, pool *database.DatabasePool, nameCache cache.Cache) repositories.UserDirectory {
	if !cfg.Directory.Enabled {
		return repositories.NoopDirectory{}
	}
	directory := repositories.NewTableDirectory(pool.DB, cfg.Directory.Table, cfg.Directory.NameColumn)
	if _, ok := directory.(repositories.NoopDirectory); ok || nameCache == nil {
		return directory
	}
	return repositories.NewCachedDirectory(directory, nameCache, cfg.Directory.CacheTTL)
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewWithPool(cfg, pool, NewNameCache(ctx, cfg)), nil
}

// NewWithPool wires the service around an existing pool. nameCache may
// be nil.
func NewWithPool(cfg *config.Config, pool *database.DatabasePool, nameCache cache.Cache) *App {
	users := repositories.NewUserRepository(pool.DB)
	directory := NewDirectory(cfg, pool, nameCache)

	todoService := services.NewTodoService(repositories.NewTodoStore(pool.DB), directory)
	authService := services.NewAuthService(users, cfg.Auth.BCryptCost)
	sessions := services.NewJWTSessionProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)

	monitor := monitoring.NewMonitor()
	monitor.RegisterHealthCheck("database", pool.HealthContext)
	monitor.RegisterStats("database", func() interface{} { return pool.Stats() })
	if nameCache != nil {
		monitor.RegisterHealthCheck("cache", nameCache.Health)
		monitor.RegisterStats("cache", func() interface{} { return nameCache.Stats() })
	}

	app := &App{
		cfg:       cfg,
		pool:      pool,
		nameCache: nameCache,
		monitor:   monitor,
	}
	app.router = NewRouter(cfg, RouterDeps{
		TodoService: todoService,
		AuthService: authService,
		Sessions:    sessions,
		Monitor:     monitor,
	})
	return app
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         a.cfg.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
}

func (a *App) Close() error {
	if a.nameCache != nil {
		if err := a.nameCache.Close(); err != nil {
			log.Printf("Error closing name cache: %v", err)
		}
	}
	return a.pool.Close()
}
