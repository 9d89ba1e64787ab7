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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"recruitmate/internal/config"
	"recruitmate/internal/handlers"
	"recruitmate/internal/middleware"
	"recruitmate/internal/repositories"
	"recruitmate/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)
	interviewRepo := repositories.NewInterviewRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize storage
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	resumeParser := services.NewResumeParserService()
	log.Println("✅ Services initialized successfully")

	// Initialize the AI vendor client
	var (
		generator services.TextGenerator
		embedder  services.Embedder
	)
	switch cfg.AI.Provider {
	case "openai":
		client := services.NewOpenAIClient(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel)
		generator, embedder = client, client
		log.Println("✅ OpenAI client initialized successfully")
	default:
		client, err := services.NewGeminiClient(cfg.AI.GeminiAPIKey)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
		}
		generator, embedder = client, client
		log.Println("✅ Gemini AI initialized successfully")
	}

	provider := services.NewQuestionProvider(generator, cfg.AI.Timeout, cfg.AI.MaxRetries)

	// Initialize Qdrant
	resumeIndex, err := services.NewResumeIndex(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	if err := resumeIndex.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
	}
	log.Println("✅ Qdrant initialized successfully")

	// Initialize the interview engine and resume matcher
	engine := services.NewInterviewEngine(
		interviewRepo,
		jobRepo,
		candidateRepo,
		provider,
		resumeParser,
	)
	matcher := services.NewResumeMatcher(
		interviewRepo,
		resumeParser,
		embedder,
		resumeIndex,
	)
	log.Println("✅ Interview engine initialized")

	// Initialize and start the resume indexing worker
	worker := services.NewWorker(
		interviewRepo,
		matcher,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
	)
	ctx := context.Background()
	worker.Start(ctx)
	log.Println("✅ Worker started successfully")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	jobHandler := handlers.NewJobHandler(jobRepo, provider)
	candidateHandler := handlers.NewCandidateHandler(
		candidateRepo,
		storageService,
		resumeParser,
		cfg.Storage.MaxFileSize,
	)
	interviewHandler := handlers.NewInterviewHandler(
		interviewRepo,
		candidateRepo,
		jobRepo,
		engine,
		matcher,
		resumeIndex,
	)
	publicHandler := handlers.NewPublicHandler(
		engine,
		storageService,
		worker,
		cfg.Auth.CookieSecret,
		cfg.Storage.MaxFileSize,
	)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "RecruitMate API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Auth
	api.Post("/auth/signup", authHandler.HandleSignup)
	api.Post("/auth/login", authHandler.HandleLogin)

	// Public candidate flow, keyed by link token
	api.Get("/interview/:token", publicHandler.HandleEntry)
	api.Post("/interview/:token/register", publicHandler.HandleRegister)
	api.Post("/interview/:token/answer", publicHandler.HandleAnswer)

	// Recruiter surface
	authed := api.Group("", middleware.NewAuthMiddleware(cfg.Auth.JWTSecret))
	authed.Get("/auth/me", authHandler.HandleMe)

	authed.Post("/jobs", jobHandler.HandleCreate)
	authed.Get("/jobs", jobHandler.HandleList)
	authed.Get("/jobs/:id", jobHandler.HandleGet)
	authed.Put("/jobs/:id", jobHandler.HandleUpdate)
	authed.Post("/jobs/:id/toggle", jobHandler.HandleToggleActive)
	authed.Delete("/jobs/:id", jobHandler.HandleDelete)

	authed.Post("/candidates", candidateHandler.HandleCreate)
	authed.Get("/candidates", candidateHandler.HandleList)
	authed.Get("/candidates/:id", candidateHandler.HandleGet)
	authed.Put("/candidates/:id", candidateHandler.HandleUpdate)
	authed.Delete("/candidates/:id", candidateHandler.HandleDelete)
	authed.Post("/candidates/:id/resume", candidateHandler.HandleUploadResume)

	authed.Post("/interviews/links", interviewHandler.HandleCreateLink)
	authed.Get("/interviews/links", interviewHandler.HandleListLinks)
	authed.Post("/interviews/links/:id/toggle", interviewHandler.HandleToggleLink)
	authed.Get("/interviews/links/:id/candidates", interviewHandler.HandleLinkCandidates)
	authed.Get("/interviews/sessions", interviewHandler.HandleListSessions)
	authed.Get("/interviews/sessions/:id", interviewHandler.HandleGetSession)
	authed.Delete("/interviews/sessions/:id", interviewHandler.HandleDeleteSession)
	authed.Get("/interviews/sessions/:id/similar", interviewHandler.HandleSimilarCandidates)
	authed.Get("/interviews/candidates", interviewHandler.HandleCandidateRollup)
	authed.Get("/interviews/candidates/profile", interviewHandler.HandleCandidateProfile)
	authed.Get("/interviews/dashboard", interviewHandler.HandleDashboard)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "RecruitMate API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/auth/signup",
				"POST /api/v1/auth/login",
				"GET /api/v1/interview/:token",
				"POST /api/v1/interviews/links",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
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
