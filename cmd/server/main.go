package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"ghostwriter-backend/internal/config"
	"ghostwriter-backend/internal/database"
	"ghostwriter-backend/internal/handlers"
	"ghostwriter-backend/internal/middleware"
	"ghostwriter-backend/internal/repository"
	"ghostwriter-backend/internal/router"
	"ghostwriter-backend/internal/services"
	"ghostwriter-backend/internal/websocket"
	"ghostwriter-backend/internal/worker"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Info().Msg("starting ghostwriter backend")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logger.Info().Msg("environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()
	logger.Info().Msg("postgres connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClients.Close()
	logger.Info().Msg("redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations", logger.With().Str("component", "migrations").Logger()); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	logger.Info().Msg("database migrations applied")

	// ──── Initialize Repositories ────
	profileRepo := repository.NewProfileRepo(pool)
	transcriptRepo := repository.NewTranscriptRepo(pool)
	webhookEventRepo := repository.NewWebhookEventRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	ctx := context.Background()
	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAIKey))
	if err != nil {
		logger.Fatal().Err(err).Msg("gemini client initialization failed")
	}
	defer genaiClient.Close()
	logger.Info().Str("model", cfg.ProfilerModel).Msg("gemini client initialized")

	// ──── Step 6: Start Background Cache Writer ────
	cacheWriter := worker.NewWriter(2, 64, logger.With().Str("component", "cache_writer").Logger())
	cacheWriter.Start()
	logger.Info().Msg("cache writer started")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	notifier := services.NewStatusNotifier(redisClients.PubSub, logger.With().Str("component", "notifier").Logger())
	youtubeService := services.NewYouTubeService(cfg.TempDir, logger.With().Str("component", "youtube").Logger())
	deepgramService := services.NewDeepgramService(cfg.DeepgramAPIKey, logger.With().Str("component", "deepgram").Logger())
	transcriptService := services.NewTranscriptService(
		youtubeService,
		deepgramService,
		transcriptRepo,
		redisClients.Cache,
		cacheWriter,
		notifier,
		cfg.MaxVideoDurationMin,
		cfg.MaxAudioBytes,
		logger.With().Str("component", "transcript").Logger(),
	)
	profiler := services.NewStyleProfiler(genaiClient, cfg.ProfilerModel, cfg.MaxSampleChars, logger.With().Str("component", "profiler").Logger())
	extractor := services.NewSampleExtractor()
	creditService := services.NewCreditService(profileRepo, logger.With().Str("component", "credits").Logger())
	ghostwriterService := services.NewGhostwriterService(
		cfg.GoogleAIKey,
		cfg.OpenAIBaseURL,
		cfg.GeneratorModel,
		services.DefaultAudienceProfiles(),
		logger.With().Str("component", "ghostwriter").Logger(),
	)

	// ──── Initialize Handlers ────
	transcriptHandler := handlers.NewTranscriptHandler(transcriptService, logger)
	dnaHandler := handlers.NewDNAHandler(profiler, extractor, cfg.TempDir, logger)
	ghostwriteHandler := handlers.NewGhostwriteHandler(ghostwriterService, creditService, logger)
	creditsHandler := handlers.NewCreditsHandler(creditService, logger)
	webhookHandler := handlers.NewWebhookHandler(cfg.LemonSqueezySecret, creditService, webhookEventRepo, logger.With().Str("component", "webhook").Logger())

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret, logger.With().Str("component", "ws").Logger())
	logger.Info().Msg("websocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		transcriptHandler,
		dnaHandler,
		ghostwriteHandler,
		creditsHandler,
		webhookHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: ghostwrite responses stream for as long as
		// the model keeps producing tokens.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("shutting down")
		cacheWriter.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("port", cfg.Port).Msg("ghostwriter backend ready")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}
