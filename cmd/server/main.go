package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"learnai-backend/internal/cache"
	"learnai-backend/internal/config"
	"learnai-backend/internal/database"
	"learnai-backend/internal/handlers"
	"learnai-backend/internal/logger"
	"learnai-backend/internal/middleware"
	"learnai-backend/internal/repository"
	"learnai-backend/internal/router"
	"learnai-backend/internal/services"
	"learnai-backend/internal/websocket"
	"learnai-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(fmt.Sprintf("logger init failed: %v", err))
	}
	defer log.Sync()
	log.Info("starting LearnAI backend", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()

	// ──── Step 4: Initialize Gemini Backends ────
	gemini, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel)
	if err != nil {
		log.Fatal("gemini client initialization failed", "error", err)
	}
	defer gemini.Close()

	var speech services.SpeechModel
	switch cfg.SpeechBackend {
	case "cloud":
		cloud, err := services.NewCloudSpeech(ctx, cfg.GoogleCredentialsFile, cfg.CloudSpeechLanguage, cfg.CloudSpeechVoice)
		if err != nil {
			log.Fatal("cloud text-to-speech initialization failed", "error", err)
		}
		defer cloud.Close()
		speech = cloud
	default:
		speech, err = services.NewGeminiSpeech(ctx, cfg.GeminiAPIKey, cfg.GeminiTTSModel, cfg.GeminiVoice)
		if err != nil {
			log.Fatal("gemini speech initialization failed", "error", err)
		}
	}
	log.Info("model backends ready", "text_model", cfg.GeminiTextModel, "speech", cfg.SpeechBackend)

	// ──── Step 5: Initialize Services ────
	invoker := services.NewInvoker(gemini, gemini, speech, cfg.GeminiConcurrentReqs, log)

	chats := services.NewChatRegistry(invoker, time.Duration(cfg.ChatSessionIdleMinutes)*time.Minute, log)
	go chats.Run(ctx, time.Minute)

	audioTTL := time.Duration(cfg.AudioCacheTTLMinutes) * time.Minute
	var audioCache services.AudioCache
	if cfg.AudioCache == "redis" {
		audioCache = cache.NewRedisAudioCache(redisClients.Queue, "audio", audioTTL)
	} else {
		audioCache = cache.NewMemoryAudioCache(audioTTL)
	}

	study := services.NewStudyService(invoker, chats, audioCache, cfg.GeminiMaxAttempts, log)

	// ──── Initialize Repositories ────
	documentRepo := repository.NewDocumentRepo(pool)
	flashcardRepo := repository.NewFlashcardRepo(pool)
	quizAttemptRepo := repository.NewQuizAttemptRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 6: Start Audio Worker Pool ────
	events := websocket.NewPublisher(redisClients.PubSub)
	workerPool := worker.NewPool(redisClients.Queue, study, documentRepo, jobRepo, events, cfg.AudioWorkers, log)
	workerDone := make(chan struct{})
	go func() {
		workerPool.Run(ctx)
		close(workerDone)
	}()

	// ──── Step 7: Start WebSocket Hub ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, log)
	defer wsHub.Close()

	var aiLimiter middleware.Limiter
	if cfg.RateLimitBackend == "redis" {
		aiLimiter = middleware.NewRedisRateLimiter(redisClients.Queue, "ratelimit:ai", cfg.AIRequestsPerMin, time.Minute)
	} else {
		memLimiter := middleware.NewRateLimiter(cfg.AIRequestsPerMin, time.Minute)
		go memLimiter.Run(ctx)
		aiLimiter = memLimiter
	}

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		log,
		jwtAuth,
		aiLimiter,
		handlers.NewDocumentHandler(documentRepo, services.NewFileExtractService()),
		handlers.NewStudyHandler(documentRepo, study, jobRepo, workerPool),
		handlers.NewFlashcardHandler(flashcardRepo, documentRepo),
		handlers.NewQuizAttemptHandler(quizAttemptRepo, documentRepo),
		handlers.NewChatHandler(documentRepo, study),
		handlers.NewJobHandler(jobRepo),
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Generation requests wait on the model; audio can take minutes.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("LearnAI backend ready",
		"api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
	}

	stop()
	<-workerDone
}
