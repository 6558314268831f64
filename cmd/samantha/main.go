package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ent0n29/salestrain-gateway/internal/auth"
	"github.com/ent0n29/salestrain-gateway/internal/config"
	"github.com/ent0n29/salestrain-gateway/internal/httpapi"
	"github.com/ent0n29/salestrain-gateway/internal/logging"
	"github.com/ent0n29/salestrain-gateway/internal/memory"
	"github.com/ent0n29/salestrain-gateway/internal/metrics"
	"github.com/ent0n29/salestrain-gateway/internal/observability"
	"github.com/ent0n29/salestrain-gateway/internal/orchestrator"
	"github.com/ent0n29/salestrain-gateway/internal/providers/failover"
	"github.com/ent0n29/salestrain-gateway/internal/providers/llm"
	"github.com/ent0n29/salestrain-gateway/internal/providers/stt"
	"github.com/ent0n29/salestrain-gateway/internal/providers/tts"
	"github.com/ent0n29/salestrain-gateway/internal/session"
)

func main() {
	// Best-effort: a missing .env is normal in production, where real
	// env vars are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	ctx := context.Background()
	memoryStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer memoryStore.Close()

	sttClient := buildSTT(cfg, logger)
	llmClient := buildLLM(cfg, logger)
	ttsClient := buildTTS(cfg, logger)

	var verifier auth.Verifier
	if cfg.AuthJWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
	}

	gatewayMetrics := observability.NewMetrics(cfg.MetricsNamespace)

	deps := orchestrator.Deps{
		STT:                 sttClient,
		LLM:                 llmClient,
		TTS:                 ttsClient,
		Store:               memoryStore,
		Auth:                verifier,
		Metrics:             gatewayMetrics,
		ScoringConfig:       metrics.DefaultScoringConfig(),
		FallbackSilenceMs:   5000,
		HeartbeatMs:         5000,
		TTSFrameBytes:       4096,
		CoachHintCooldownMs: 20000,
	}

	registry := session.NewRegistry(cfg.SessionInactivityTimeout)
	registry.SetExpireHook(func(connID string) {
		logger.Info("connection expired from inactivity", "conn_id", connID)
	})

	api := httpapi.New(cfg, func() httpapi.Dispatcher {
		return orchestrator.NewDispatcher(deps, logger)
	}, registry, gatewayMetrics, logger)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	registry.StartJanitor(runCtx, 5*time.Second)

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err.Error())
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}

func buildSTT(cfg config.Config, logger logging.Logger) stt.Client {
	var primary stt.Client = stt.NewDeepgramClient(cfg.DeepgramAPIKey, logger)
	if cfg.DeepgramAPIKey == "" {
		logger.Warn("DEEPGRAM_API_KEY not set, using mock STT provider")
		primary = &stt.MockClient{}
	}
	if cfg.FallbackSTTProvider == "" {
		return primary
	}
	return failover.NewSTT(primary, &stt.MockClient{}, logger)
}

// buildLLM has no configured fallback provider (spec.md §6 names only
// FALLBACK_STT_PROVIDER/FALLBACK_TTS_PROVIDER): an LLM generate failure is
// instead absorbed by the turn pipeline's canned "customer unavailable"
// reply, so there is nothing here for failover.NewLLM to wrap.
func buildLLM(cfg config.Config, logger logging.Logger) llm.Client {
	timeout := time.Duration(cfg.LLMTimeoutMS) * time.Millisecond
	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY not set, using mock LLM provider")
		return &llm.MockClient{Replies: []string{"Tell me more about your pricing."}}
	}
	return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMProvider, timeout)
}

func buildTTS(cfg config.Config, logger logging.Logger) tts.Client {
	var primary tts.Client
	switch {
	case cfg.TTSAPIKey == "":
		logger.Warn("TTS_API_KEY not set, using mock TTS provider")
		primary = &tts.MockClient{}
	case cfg.TTSProvider == "lokutor":
		primary = tts.NewLokutorClient(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSVoiceID)
	default:
		primary = tts.NewHTTPClient(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSVoiceID, 10*time.Second)
	}
	if cfg.FallbackTTSProvider == "" {
		return primary
	}
	return failover.NewTTS(primary, &tts.MockClient{}, logger)
}
