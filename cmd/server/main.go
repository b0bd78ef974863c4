package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"salarymap/internal/api"
	"salarymap/internal/config"
	"salarymap/internal/engine"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.Level())

	// 1. Initialize Echo (Starts Instantly)
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.Level())
	e.JSONSerializer = api.JSONSerializer{}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.CorsOrigins}))
	e.Use(middleware.Logger())
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	}

	// 2. Initialize Handler with NIL data
	// The API answers 503 until the background load publishes a dataset
	h := api.NewHandler(nil, cfg.Layout, cfg.Cache.Views)
	h.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Load inputs in the background
	go func() {
		t0 := time.Now()
		ds, err := engine.LoadDataset(ctx, cfg.Paths())
		if err != nil {
			if ctx.Err() == nil {
				log.Errorf("dataset load failed: %v", err)
			}
			return
		}
		h.SetData(ds)
		log.Infof("dataset ready in %v", time.Since(t0))
	}()

	// 4. Start Server
	go func() {
		log.Infof("listening on %s (%s)", cfg.Address(), cfg.Environment)
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown
	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	log.Info("shutdown complete")
}
