package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studyrag/internal/chunker"
	"studyrag/internal/config"
	embopenai "studyrag/internal/embedding/openai"
	"studyrag/internal/extract"
	"studyrag/internal/service"
	"studyrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/studyrag/config.yaml if not provided)")
	dir := flag.String("dir", "downloads_", "Root directory of documents to ingest")
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

	schema, err := cfg.Schema()
	if err != nil {
		sugar.Fatalf("invalid schema config: %v", err)
	}

	embedder, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.OpenAI.EmbeddingModel,
		Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		Dimension: cfg.VectorSize,
	})
	if err != nil {
		sugar.Fatalf("embedding client init failed: %v", err)
	}

	store := qdrant.New(qdrant.Config{
		URL:     cfg.Qdrant.URL,
		APIKey:  cfg.Qdrant.APIKey,
		Timeout: time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
	})

	ck, err := chunker.NewWindowChunker(cfg.Chunking.Window, cfg.Chunking.Overlap)
	if err != nil {
		sugar.Fatalf("invalid chunking config: %v", err)
	}

	ingester := service.NewIngester(service.IngesterConfig{
		Chunker:    ck,
		Embedder:   embedder,
		Store:      store,
		Extractors: extract.Default(),
		Schema:     schema,
		Workers:    cfg.Ingest.Workers,
		Logger:     sugar,
	})

	sugar.Infow("starting ingestion", "dir", *dir, "collection", cfg.Collection, "model", cfg.OpenAI.EmbeddingModel)
	if err := ingester.IngestDir(context.Background(), *dir); err != nil {
		sugar.Fatalf("ingest failed: %v", err)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}
