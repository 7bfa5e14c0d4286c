package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studyrag/internal/config"
	embopenai "studyrag/internal/embedding/openai"
	genopenai "studyrag/internal/generation/openai"
	"studyrag/internal/service"
	"studyrag/internal/tui"
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

	// One-shot mode when a question is given on the command line.
	if args := flag.Args(); len(args) > 0 {
		question := strings.Join(args, " ")
		answer, err := answerer.Answer(context.Background(), question)
		if err != nil {
			sugar.Fatalf("question failed: %v", err)
		}
		fmt.Println(answer)
		return
	}

	m := tui.New(answerer)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
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
