package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekdahl/libris-auth/internal/api/http/handler"
	"github.com/ekdahl/libris-auth/internal/api/http/middleware"
	"github.com/ekdahl/libris-auth/internal/api/http/reqctx"
	"github.com/ekdahl/libris-auth/internal/api/http/router"
	"github.com/ekdahl/libris-auth/internal/config"
	"github.com/ekdahl/libris-auth/internal/guard"
	"github.com/ekdahl/libris-auth/internal/logger"
	"github.com/ekdahl/libris-auth/internal/model"
	"github.com/ekdahl/libris-auth/internal/password"
	"github.com/ekdahl/libris-auth/internal/rate"
	"github.com/ekdahl/libris-auth/internal/repository/postgres"
	"github.com/ekdahl/libris-auth/internal/revocation"
	"github.com/ekdahl/libris-auth/internal/server"
	"github.com/ekdahl/libris-auth/internal/service"
	"github.com/ekdahl/libris-auth/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	revocationStore := newRevocationStore(ctx, cfg, logger)
	loginGuard := guard.NewLogin(cfg.Login.MaxAttempts, cfg.Login.FailureWindow, cfg.Login.LockoutDuration)
	limiter := rate.NewLimiter(cfg.Rate.MaxRequests, cfg.Rate.WindowDuration)

	go loginGuard.Run(ctx, cfg.Login.LockoutDuration)
	go limiter.Run(ctx, cfg.Rate.WindowDuration)

	authService := service.NewAuth(userRepo, tokenManager, revocationStore, loginGuard, password.NewBcrypt(0), logger)
	ctxMgr := reqctx.NewManager()

	authHandler := handler.NewAuth(authService, logger)
	r := router.New(
		authHandler,
		middleware.NewLogging(logger),
		middleware.RateLimit(limiter, logger),
		middleware.NewAuthenticate(authService, ctxMgr, logger),
	)

	httpServer := server.NewHTTPServer(r, fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// newRevocationStore keeps revocation in process memory unless a Redis
// address is configured, in which case revocations are shared across
// instances.
func newRevocationStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) model.RevocationStore {
	if cfg.Redis.Addr == "" {
		store := revocation.NewMemory()
		go store.Run(ctx, cfg.Revocation.SweepInterval)
		return store
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err, "addr", cfg.Redis.Addr)
	}

	logger.Info("using redis revocation store", "addr", cfg.Redis.Addr)

	return revocation.NewRedis(client)
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
