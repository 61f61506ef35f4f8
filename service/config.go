package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Config defines service settings.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Index      IndexConfig      `yaml:"index"`
	Suggest    SuggestConfig    `yaml:"suggest"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	MCPServer  MCPServerConfig  `yaml:"mcpServer"`
}

// StoreConfig defines content store settings.
type StoreConfig struct {
	DSN    string `yaml:"dsn"`
	Secret string `yaml:"secret,omitempty"`
}

// IndexConfig defines context index settings. An empty DSN disables the index.
type IndexConfig struct {
	DSN       string `yaml:"dsn"`
	ChunkSize int    `yaml:"chunkSize"`
	Overlap   int    `yaml:"overlap"`
}

// SuggestConfig defines suggestion provider settings.
type SuggestConfig struct {
	Provider       string `yaml:"provider"` // static | openai
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"baseURL,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"`
	Secret         string `yaml:"secret,omitempty"`
	NumOptions     int    `yaml:"numOptions"`
	ContextChunks  int    `yaml:"contextChunks"`
	ContextChars   int    `yaml:"contextChars"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// EmbeddingsConfig defines embedder settings.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider"` // simple | openai | ollama | vertexai
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"baseURL,omitempty"`
	APIKey     string `yaml:"apiKey,omitempty"`
	Secret     string `yaml:"secret,omitempty"`
	Dimensions int    `yaml:"dimensions"`
	Project    string `yaml:"project,omitempty"`
	Location   string `yaml:"location,omitempty"`
	KeepAlive  string `yaml:"keepAlive,omitempty"` // ollama model residency, e.g. "10m"
}

// MCPServerConfig defines MCP server settings.
type MCPServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// DefaultConfig returns an offline configuration storing under ~/.redline.
func DefaultConfig() *Config {
	base := "~/.redline"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".redline")
	}
	return &Config{
		Store:   StoreConfig{DSN: filepath.Join(base, "manuscripts.db")},
		Index:   IndexConfig{DSN: filepath.Join(base, "context.db")},
		Suggest: SuggestConfig{Provider: "static", NumOptions: 3, ContextChunks: 6, ContextChars: 500},
	}
}

// LoadConfig reads, expands and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if cfg.Store.DSN != "" {
		if cfg.Store.DSN, err = expandUserPath(cfg.Store.DSN); err != nil {
			return nil, err
		}
	}
	if cfg.Store.Secret != "" {
		if cfg.Store.DSN, err = ExpandWithSecret(context.Background(), cfg.Store.DSN, cfg.Store.Secret); err != nil {
			return nil, err
		}
	}
	if cfg.Index.DSN != "" {
		if cfg.Index.DSN, err = expandUserPath(cfg.Index.DSN); err != nil {
			return nil, err
		}
	}
	if cfg.Suggest.Secret != "" {
		if cfg.Suggest.APIKey, err = ExpandWithSecret(context.Background(), "${Password}", cfg.Suggest.Secret); err != nil {
			return nil, err
		}
	}
	if cfg.Embeddings.Secret != "" {
		if cfg.Embeddings.APIKey, err = ExpandWithSecret(context.Background(), "${Password}", cfg.Embeddings.Secret); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	if !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	return filepath.Join(home, trimmed[2:]), nil
}

// ExpandWithSecret loads a secret and expands placeholders in the template.
func ExpandWithSecret(ctx context.Context, template, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return template, nil
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(template), nil
}
