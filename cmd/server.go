// server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/config"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger with config
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))

	logx.Info("🚀 Starting Wanderlust travel agent...")
	logx.Infof("Environment: %s", cfg.Environment)

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Start background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	// 5. Create Fiber App with Config
	app := newApp(container)

	// 6. Print Route Summary
	printRouteSummary()

	// 7. Start Server with Graceful Shutdown
	startServer(app, cfg, cancel)
}

func newApp(container *Container) *fiber.App {
	cfg := container.Config

	app := fiber.New(fiber.Config{
		AppName:               "Wanderlust",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(cfg),
		BodyLimit:             1 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
		EnablePrintRoutes:     false,
	})

	setupMiddleware(app, cfg)

	app.Get("/health", healthCheckHandler(container))
	app.Get("/api/v1/docs", apiDocsHandler(cfg))

	registerRoutes(app, container)

	app.Use(notFoundHandler)
	return app
}

// ============================================================================
// Setup Functions
// ============================================================================

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	// Panic recovery
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	// CORS
	corsOrigins := "*"
	if len(cfg.Server.CORSOrigins) > 0 {
		corsOrigins = strings.Join(cfg.Server.CORSOrigins, ",")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:     "GET, POST, HEAD, OPTIONS",
		AllowCredentials: corsOrigins != "*",
		ExposeHeaders:    "X-Request-ID",
	}))

	// Request logger
	logFormat := "${time} | ${status} | ${latency} | ${method} ${path}"
	if cfg.IsDevelopment() {
		logFormat += " | ${ip} | ${reqHeader:X-Request-ID}\n"
	} else {
		logFormat += "\n"
	}

	app.Use(logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))
}

func registerRoutes(app *fiber.App, container *Container) {
	logx.Info("📝 Registering routes...")

	// Routes: /, /messages, /reset, /api/v1/session, /api/v1/chat,
	// /api/v1/reset, /api/v1/threads/:id/history
	container.ChatHandlers.RegisterRoutes(app)
	logx.Info("✓ Chat routes registered")

	logx.Info("✅ All routes registered")
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler reports on the backends the current configuration uses
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":           "healthy",
			"service":          "wanderlust",
			"environment":      container.Config.Environment,
			"llm_provider":     string(container.Config.LLM.Provider),
			"checkpoint_store": container.Config.Storage.CheckpointStore,
			"session_store":    container.Config.Storage.SessionStore,
			"timestamp":        fmt.Sprintf("%d", c.Context().Time().Unix()),
		}

		if container.DB != nil {
			if err := container.DB.Ping(); err != nil {
				health["db"] = "unhealthy"
				health["db_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["db"] = "healthy"
			}
		}

		if container.SQLite != nil {
			if err := container.SQLite.Ping(c.UserContext()); err != nil {
				health["sqlite"] = "unhealthy"
				health["sqlite_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["sqlite"] = "healthy"
			}
		}

		if container.Redis != nil {
			if _, err := container.Redis.Ping(c.UserContext()).Result(); err != nil {
				health["redis"] = "unhealthy"
				health["redis_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["redis"] = "healthy"
			}
		}

		// Check storage (optional - can be slow)
		if container.FileSystem != nil && c.QueryBool("check_storage", false) {
			if exists, err := container.FileSystem.Exists(c.UserContext(), ".health-check"); err != nil {
				health["storage"] = "unhealthy"
				health["storage_error"] = err.Error()
			} else {
				health["storage"] = "healthy"
				health["storage_accessible"] = exists
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// apiDocsHandler returns API documentation
func apiDocsHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"api_version": "v1",
			"base_url":    cfg.Server.BaseURL,
			"endpoints": fiber.Map{
				"page": fiber.Map{
					"chat":  "GET /",
					"send":  "POST /messages (form field: message)",
					"reset": "POST /reset",
				},
				"api": fiber.Map{
					"session": "GET /api/v1/session",
					"chat":    "POST /api/v1/chat {\"message\": \"...\"} -> text/event-stream",
					"reset":   "POST /api/v1/reset",
					"history": "GET /api/v1/threads/:id/history",
				},
			},
			"events": []string{"tool_result", "ai_response", "error", "done"},
			"session": fiber.Map{
				"cookie": cfg.Session.CookieName,
				"ttl":    cfg.Session.TTL.String(),
			},
			"agent": fiber.Map{
				"provider":  string(cfg.LLM.Provider),
				"model":     cfg.LLM.Model,
				"max_steps": cfg.Agent.MaxSteps,
				"tools":     []string{"retrieve_places", "weather_info"},
			},
		})
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist. Visit /api/v1/docs for documentation.",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals("requestid").(string)

		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": requestID,
			"user_agent": c.Get("User-Agent"),
		}).Errorf("Request error: %v", err)

		// If it's a Fiber error
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if wantsHTML(c) {
				return errorPage(c, fe.Code, fe.Message)
			}
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":      fe.Message,
				"code":       "FIBER_ERROR",
				"status":     fe.Code,
				"request_id": requestID,
			})
		}

		// If it's our custom errx.Error
		if e, ok := errx.As(err); ok {
			if wantsHTML(c) {
				return errorPage(c, e.HTTPStatus, e.Message)
			}

			response := fiber.Map{
				"error":      e.Message,
				"code":       e.Code,
				"type":       string(e.Type),
				"status":     e.HTTPStatus,
				"request_id": requestID,
			}

			if len(e.Details) > 0 {
				response["details"] = e.Details
			}

			// Include underlying error in debug mode
			if cfg.IsDevelopment() && e.Err != nil {
				response["underlying_error"] = e.Err.Error()
			}

			return c.Status(e.HTTPStatus).JSON(response)
		}

		if wantsHTML(c) {
			return errorPage(c, fiber.StatusInternalServerError, "Internal Server Error")
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Internal Server Error",
			"type":       "INTERNAL",
			"code":       "INTERNAL_ERROR",
			"message":    "An unexpected error occurred. Please contact support if the issue persists.",
			"request_id": requestID,
		})
	}
}

func wantsHTML(c *fiber.Ctx) bool {
	return !strings.HasPrefix(c.Path(), "/api/") && c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMETextHTML
}

func errorPage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).SendString(fmt.Sprintf("%d %s", status, message))
}

// ============================================================================
// Utility Functions
// ============================================================================

func generateRequestID() string {
	return "req-" + uuid.NewString()
}

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Health: /health")
	logx.Info("   ├─ Docs: /api/v1/docs")
	logx.Info("   ├─ Chat page: /, /messages, /reset")
	logx.Info("   └─ Chat API: /api/v1/session, /api/v1/chat, /api/v1/reset, /api/v1/threads/:id/history")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, cfg *config.Config, cancel context.CancelFunc) {
	port := fmt.Sprintf("%d", cfg.Server.Port)

	go func() {
		logx.Info("=" + repeatString("=", 70))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("🧳 Chat: http://localhost:%s/", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Infof("🤖 Model: %s (%s)", cfg.LLM.Model, cfg.LLM.Provider)
		logx.Infof("🔒 Environment: %s", cfg.Environment)
		logx.Info("=" + repeatString("=", 70))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app, cancel)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	// Cancel context to stop background services
	cancel()

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
