// File: kvrdesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvrdesk/config"
	"kvrdesk/cron"
	"kvrdesk/database"
	documentRepo "kvrdesk/database/repository/document"
	"kvrdesk/handlers"
	"kvrdesk/middleware"
	"kvrdesk/routes"
	"kvrdesk/services/booking"
	ai "kvrdesk/services/intelligence"
	"kvrdesk/services/notification"
	"kvrdesk/services/session"
	"kvrdesk/services/tools"
	"kvrdesk/services/voice"
	"kvrdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// document store.
	var store documentRepo.DocumentStore
	switch cfg.StoreBackend {
	case "mongo":
		database.InitDB()
		store = documentRepo.NewMongoStore(database.Database())
	default:
		store = documentRepo.NewFileStore(cfg.DataFile)
	}
	logger.Info("document store ready", zap.String("backend", cfg.StoreBackend))

	// conversation snapshots.
	utils.InitCache()
	snapshots := ai.NewRedisContextStore(utils.GetCacheClient(), config.SnapshotTTL())

	// services.
	var notifier notification.NotificationService
	if cfg.SMTPUsername != "" {
		svc, err := notification.NewDefaultNotificationService(notification.NewSMTPSender(cfg), cfg.SenderEmail, cfg.BaseURL, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize notifications: %v", err)
		}
		notifier = svc
	} else {
		logger.Warn("SMTP_USERNAME not set, confirmation emails are disabled")
	}

	bookingService := booking.NewBookingService(store, notifier, logger, config.HoldDuration())
	dispatcher := tools.NewDispatcher(bookingService, notifier, logger)

	worker, err := cron.InitSweepWorker(bookingService)
	if err != nil {
		logger.Warn("hold expiry worker unavailable, holds expire lazily", zap.Error(err))
	} else {
		bookingService.Expiry = worker
	}

	completion, closeCompletion := newCompletionClient(cfg, logger)
	defer closeCompletion()

	settings := voice.VoiceSettings{Stability: cfg.VoiceStability, SimilarityBoost: cfg.VoiceSimilarity}
	elevenLabs := voice.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModel, cfg.ElevenLabsSTTModel, settings, logger)
	streamer := voice.NewStreamSynthesizer(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModel, settings, logger)
	transcriber, closeTranscriber := newTranscriber(cfg, elevenLabs, logger)
	defer closeTranscriber()

	registry := session.NewRegistry()
	newAgent := func() *ai.Agent {
		return ai.NewAgent(completion, dispatcher, ai.SystemPrompt(time.Now(), config.HoldDuration()), logger)
	}

	ctx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(ctx, 30*time.Second, store, []*redis.Client{utils.GetCacheClient()})

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware())

	sessionHandler := handlers.NewSessionHandler(registry, newAgent, streamer, transcriber, snapshots)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	webhookHandler := handlers.NewWebhookHandler(dispatcher)
	speechHandler := handlers.NewSpeechHandler(transcriber, elevenLabs)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		WebhookSecret: cfg.ElevenLabsWebhookSecret,

		// Session endpoints.
		WebSocketHandler: sessionHandler.WebSocketHandler,
		SnapshotHandler:  sessionHandler.SnapshotHandler,
		HealthHandler:    sessionHandler.HealthHandler,

		WebhookHandler: webhookHandler.HandleWebhook,

		// Booking endpoints.
		ConfirmHoldHandler:   bookingHandler.ConfirmHoldHandler,
		AvailabilityHandler:  bookingHandler.AvailabilityHandler,
		NextAvailableHandler: bookingHandler.NextAvailableHandler,
		GetBookingHandler:    bookingHandler.GetBookingHandler,
		CancelBookingHandler: bookingHandler.CancelBookingHandler,

		// Speech endpoints.
		TranscribeHandler: speechHandler.TranscribeHandler,
		SynthesizeHandler: speechHandler.SynthesizeHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8000"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := database.CloseDB(shutdownCtx); err != nil {
		logger.Warn("main: failed to close MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// newCompletionClient picks the language model backend from COMPLETION_PROVIDER.
func newCompletionClient(cfg config.Config, logger *zap.Logger) (ai.CompletionClient, func()) {
	if cfg.CompletionProvider == "gemini" {
		client, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini: %v", err)
		}
		return client, func() { client.Close() }
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, completions will fail")
	}
	return ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), func() {}
}

// newTranscriber picks the speech-to-text backend from STT_PROVIDER.
func newTranscriber(cfg config.Config, fallback *voice.ElevenLabs, logger *zap.Logger) (voice.Transcriber, func()) {
	if cfg.STTProvider != "google" {
		return fallback, func() {}
	}
	google, err := voice.NewGoogleTranscriber(context.Background(), cfg.GoogleServiceAccountFile, logger)
	if err != nil {
		logger.Warn("Google Speech unavailable, using ElevenLabs transcription", zap.Error(err))
		return fallback, func() {}
	}
	return google, func() { google.Close() }
}
