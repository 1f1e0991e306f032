package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kavyp12/carrer-guide-new-one/internal/config"
	"github.com/kavyp12/carrer-guide-new-one/internal/handlers"
	"github.com/kavyp12/carrer-guide-new-one/internal/middleware"
	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
	"github.com/kavyp12/carrer-guide-new-one/internal/services"
)

func main() {
	cfg := config.Load()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	repo := repositories.NewSubmissionRepository(db)

	schemas := services.NewSchemaRegistry()
	if cfg.Schema.Path != "" {
		if err := schemas.LoadDir(cfg.Schema.Path); err != nil {
			log.Fatalf("failed to load schemas: %v", err)
		}
	}
	if schemas.Len() == 0 {
		if err := schemas.Register(services.DefaultCareerSchema()); err != nil {
			log.Fatalf("failed to register default schema: %v", err)
		}
	}
	log.Printf("schemas loaded, default version %s", schemas.DefaultVersion())

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	artifacts, err := services.NewFileArtifactStore(cfg.Artifact.Path)
	if err != nil {
		log.Fatalf("failed to initialize artifact store: %v", err)
	}

	model, err := services.NewGeminiModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("failed to initialize Gemini: %v", err)
	}

	policy := services.DefaultRetryPolicy(
		cfg.Worker.RetryMaxAttempts,
		cfg.Worker.RetryInitialDelay,
		models.RetryableModelError,
	)
	generator := services.NewReportGenerator(model, policy, cfg.Worker.CallTimeout, cfg.Worker.GenerationBudget)

	tracker := services.NewTracker(repo)
	prompts := services.NewPromptBuilder(cfg.Prompt.MaxChars)
	pipeline := services.NewPipeline(repo, tracker, schemas, prompts, generator, artifacts)

	worker := services.NewWorker(repo, pipeline, cfg.Worker.Concurrency)
	worker.Start(context.Background())

	submitHandler := handlers.NewSubmitHandler(repo, schemas, worker)
	reportHandler := handlers.NewReportHandler(repo, artifacts)

	app := fiber.New(fiber.Config{
		AppName:      "Career Guide Assessment API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	authed := api.Group("", middleware.RequireUser(authService))
	authed.Post("/assessments", submitHandler.HandleSubmit)
	authed.Get("/assessments/:id/report", reportHandler.HandleGetReport)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
