package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-api/api"
	"todo-api/router"
	"todo-api/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("todo-api: %v", err)
	}
}

func run() error {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := log.New()
	if cfg.debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	var notifier api.Notifier = api.NopNotifier{}
	if cfg.redisConn != "" {
		opts, err := redisOptions(cfg.redisConn)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		rc := redis.NewClient(opts)
		defer rc.Close()
		n := api.NewRedisNotifier(rc, cfg.notify, logger)
		// runs before rc.Close so queued events still reach redis
		defer n.Close()
		notifier = n
	} else {
		logger.Info("REDIS_CONNECTION_STRING not set; change events disabled")
	}

	rt := router.New()
	api.Register(rt, storage.NewMemory(), notifier, logger)
	for _, r := range rt.Routes() {
		logger.Debugf("route %s %s", r.Method, r.Pattern)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, newServer(rt, logger, cfg.maxBodyBytes), cfg.listenAddr, logger)
}

// serve runs e until ctx is cancelled or the listener fails, then shuts it
// down. A start failure is returned instead of exiting so deferred cleanup runs.
func serve(ctx context.Context, e *echo.Echo, addr string, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	var startErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			startErr = fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	return startErr
}

func newServer(rt *router.Router, logger *log.Logger, maxBody int64) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderContentEncoding},
	}))
	e.Use(api.DecompressRequestBody())
	api.Mount(e, api.NewDispatcher(rt, logger, maxBody))
	return e
}
