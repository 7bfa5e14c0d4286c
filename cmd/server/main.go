package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studyrag/internal/config"
	embopenai "studyrag/internal/embedding/openai"
	genopenai "studyrag/internal/generation/openai"
	"studyrag/internal/httpapi"
	"studyrag/internal/service"
	"studyrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/studyrag/config.yaml if not provided)")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	answerer, err := buildAnswerer(cfg, sugar)
	if err != nil {
		sugar.Fatalf("init failed: %v", err)
	}

	api := httpapi.NewServer(answerer, httpapi.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         sugar,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("shutdown failed", "error", err)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func buildAnswerer(cfg *config.AppConfig, sugar *zap.SugaredLogger) (*service.Answerer, error) {
	timeout := time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second

	embedder, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.OpenAI.EmbeddingModel,
		Timeout:   timeout,
		Dimension: cfg.VectorSize,
	})
	if err != nil {
		return nil, err
	}

	generator, err := genopenai.NewClient(genopenai.Config{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.OpenAI.ChatModel,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, err
	}

	store := qdrant.New(qdrant.Config{
		URL:     cfg.Qdrant.URL,
		APIKey:  cfg.Qdrant.APIKey,
		Timeout: time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
	})

	return service.NewAnswerer(service.AnswererConfig{
		Embedder:       embedder,
		Store:          store,
		Generator:      generator,
		Collection:     cfg.Collection,
		Limit:          cfg.Retrieval.Limit,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		Logger:         sugar,
	}), nil
}
