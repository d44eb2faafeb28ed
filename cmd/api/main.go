package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"drivedocs/docs"
	"drivedocs/internal/app"
	"drivedocs/internal/config"
	handlers "drivedocs/internal/http/handler"
	"drivedocs/internal/http/middleware"
	"drivedocs/internal/logging"
	"drivedocs/internal/otel"
)

const shutdownTimeout = 10 * time.Second

// @title Drive Documents API
// @version 1.0
// @description Create Google Docs from text and export them as .docx.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logging.New(logging.Options{
		Name:     "drivedocs",
		Level:    cfg.LogLevel,
		Location: cfg.Location(),
	})

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log hclog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log.Named("otel"))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// No authorizer: a missing or revoked credential fails requests with
	// AUTH_REQUIRED instead of blocking on a browser. Run `docctl auth` first.
	stack, err := app.New(ctx, cfg, log, app.Options{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		return err
	}

	switch st, err := stack.Credentials.Status(); {
	case err != nil:
		log.Warn("cannot read stored provider credential", "token_path", cfg.Google.TokenPath, "error", err)
	case !st.Present:
		log.Warn("no stored provider credential; document calls will fail until `docctl auth` is run",
			"token_path", cfg.Google.TokenPath)
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	server := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// Register global middleware
	server.Use(middleware.RequestID())
	server.Use(otelfiber.Middleware())
	server.Use(middleware.Logger(log.Named("http")))
	server.Use(promMiddleware.Handler())

	server.Get(middleware.MetricsPath, middleware.MetricsHandler(prometheus.DefaultGatherer))

	handlers.RegisterRoutes(server, stack.DB, stack.Credentials, stack.Documents)

	// Swagger UI with dynamic host and scheme
	server.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	listenErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		listenErr <- server.Listen(addr)
	}()

	var result *multierror.Error
	select {
	case err := <-listenErr:
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("listen: %w", err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown server: %w", err))
	}

	tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown tracing: %w", err))
	}

	if err := stack.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
