package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/minigate/minigate/internal/config"
	"github.com/minigate/minigate/internal/metrics"
	"github.com/minigate/minigate/internal/pipeline"
	"github.com/minigate/minigate/internal/router"
	"github.com/minigate/minigate/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load(*envPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting minigate",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"tls", cfg.Server.TLS(), "http2", cfg.Server.UseHTTP2,
		"rate_limiting", cfg.RateLimit.Enabled)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	r := router.New()
	registerRoutes(r)

	p := pipeline.New(r, cfg, m)
	defer p.Stop()

	lc, err := server.New(cfg, p)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsMux,
		}
		go func() {
			logger.Info("metrics server starting", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	go func() {
		if err := lc.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		_ = metricsServer.Shutdown(ctx)
	}
	if err := lc.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server gracefully stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var sink io.Writer = os.Stdout
	if cfg.LogFile != "" {
		sink = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: level}))
}

// registerRoutes wires the demo application surface.
func registerRoutes(r *router.Router) {
	r.GET("/health", func(c *router.Context) (*router.Response, error) {
		return c.JSON(map[string]string{"status": "ok"}), nil
	})

	r.GET("/users/:id", func(c *router.Context) (*router.Response, error) {
		return c.JSON(map[string]string{"id": c.Param("id")}), nil
	})

	r.POST("/echo", func(c *router.Context) (*router.Response, error) {
		switch c.Body.Kind {
		case router.BodyJSON:
			return c.JSON(c.Body.JSON), nil
		case router.BodyForm:
			return c.Form(c.Body.Form), nil
		case router.BodyText:
			return c.Text(c.Body.Text), nil
		default:
			return &router.Response{Status: http.StatusNoContent}, nil
		}
	})

	r.Any("/static/*", func(c *router.Context) (*router.Response, error) {
		return c.Text("requested: " + c.Param(router.WildcardParam)), nil
	})
}
