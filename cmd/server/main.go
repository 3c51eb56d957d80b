package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sanedge/user-management-api/internal/auth"
	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/config"
	"github.com/sanedge/user-management-api/internal/database"
	"github.com/sanedge/user-management-api/internal/handler"
	"github.com/sanedge/user-management-api/internal/middleware"
	"github.com/sanedge/user-management-api/internal/queue"
	"github.com/sanedge/user-management-api/internal/repository"
	"github.com/sanedge/user-management-api/internal/router"
	"github.com/sanedge/user-management-api/internal/seeder"
	"github.com/sanedge/user-management-api/internal/service"
)

func main() {
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Redis is optional. With no client the cache layer degrades to
	// plain database reads and the rate limiter passes everything.
	rdb := config.NewRedisClient()
	var store cache.Store
	if rdb != nil {
		store = cache.NewRedisStore(rdb)
	}
	sessions := cache.NewSessionCache(store, cacheCfg)

	// Repositories.
	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	userRoles := repository.NewUserRoleRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Auth primitives.
	hasher := auth.NewHasher(cfg.BcryptCost)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	rotation := auth.NewRotationPolicy(tokens, issuer)

	// Services.
	authSvc := service.NewAuthService(users, roles, userRoles, rotation, issuer, hasher, sessions)
	userSvc := service.NewUserService(users, roles, userRoles, hasher, sessions)
	roleSvc := service.NewRoleService(roles, sessions)

	if config.SeederEnabled() {
		seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
		s := &seeder.Seeder{Users: users, Roles: roles, UserRoles: userRoles, Hasher: hasher}
		if err := s.Run(seedCtx); err != nil {
			log.Printf("seeder: %v", err)
		}
		cancelSeed()
	}

	// Audit consumer runs for the lifetime of the process and reconnects
	// on broker failures.
	go func() {
		if err := queue.StartUserEventConsumer(); err != nil {
			log.Printf("user-events-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), cfg.JWTSecret, middleware.NewTokenBucket(rlCfg, rdb))
	router.RegisterUsers(e, handler.NewUserHandler(userSvc), cfg.JWTSecret)
	router.RegisterRoles(e, handler.NewRoleHandler(roleSvc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
