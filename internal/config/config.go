package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studyrag/internal/domain"
)

// OpenAIConfig holds the remote embedding/generation capability settings.
// The API key itself is looked up from the environment variable named by
// APIKeyEnv, never stored in the file.
type OpenAIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for the vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkingConfig configures the fixed-window splitter.
type ChunkingConfig struct {
	Window  int `yaml:"window"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig bounds similarity search and context assembly.
type RetrievalConfig struct {
	Limit          int     `yaml:"limit"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// IngestConfig configures the ingestion run.
type IngestConfig struct {
	Workers int `yaml:"workers"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Collection string          `yaml:"collection"`
	VectorSize int             `yaml:"vector_size"`
	Distance   string          `yaml:"distance"`
	OpenAI     OpenAIConfig    `yaml:"openai"`
	Qdrant     QdrantConfig    `yaml:"qdrant"`
	Chunking   ChunkingConfig  `yaml:"chunking"`
	Retrieval  RetrievalConfig `yaml:"retrieval"`
	Ingest     IngestConfig    `yaml:"ingest"`
	Server     ServerConfig    `yaml:"server"`
}

// DistanceMetric maps the configured metric onto the domain enum.
func (c *AppConfig) DistanceMetric() (domain.Distance, error) {
	switch c.Distance {
	case "cosine", "":
		return domain.DistanceCosine, nil
	case "euclid", "euclidean":
		return domain.DistanceEuclid, nil
	case "dot":
		return domain.DistanceDot, nil
	default:
		return "", fmt.Errorf("unknown distance metric: %s", c.Distance)
	}
}

// Schema builds the collection schema from the configured values.
func (c *AppConfig) Schema() (domain.Schema, error) {
	metric, err := c.DistanceMetric()
	if err != nil {
		return domain.Schema{}, err
	}
	return domain.Schema{Collection: c.Collection, VectorSize: c.VectorSize, Distance: metric}, nil
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/studyrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "studyrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Collection == "" {
		cfg.Collection = "class_notes"
	}
	if cfg.VectorSize == 0 {
		// text-embedding-3-small default dimensionality
		cfg.VectorSize = 1536
	}
	if cfg.Distance == "" {
		cfg.Distance = "cosine"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_KEY"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 60
	}
	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.Qdrant.TimeoutSecs == 0 {
		cfg.Qdrant.TimeoutSecs = 15
	}
	if cfg.Chunking.Window == 0 {
		cfg.Chunking.Window = 500
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 50
	}
	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = 20
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 0.2
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 1
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
}
