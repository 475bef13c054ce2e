package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	IndexMemory  = "memory"
	IndexChromem = "chromem"

	defaultOllamaURL   = "http://localhost:11434"
	defaultOpenAIURL   = "https://api.openai.com/v1"
	defaultEmbedModel  = "nomic-embed-text"
	defaultChatModel   = "gemma3:1b"
	defaultTimeoutSecs = 120
	defaultChunkSize   = 800
	defaultTopK        = 3
	defaultLogLevel    = "info"
	defaultLogFile     = "docchat.log"
)

// LLMConfig describes one model endpoint (embedding or chat).
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Key         string  `yaml:"key"`
	KeyEnv      string  `yaml:"key_env"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float64 `yaml:"temperature"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	TopK         int    `yaml:"top_k"`
	EmbedWorkers int    `yaml:"embed_workers"`
	Index        string `yaml:"index"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	EmbedLLM LLMConfig `yaml:"embed_llm"`
	ChatLLM  LLMConfig `yaml:"chat_llm"`
	RAG      RAGConfig `yaml:"rag"`
	Log      LogConfig `yaml:"log"`
}

// LoadConfig reads the YAML config at path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

func ApplyDefaults(cfg *Config) {
	applyLLMDefaults(&cfg.EmbedLLM, defaultEmbedModel)
	applyLLMDefaults(&cfg.ChatLLM, defaultChatModel)

	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.EmbedWorkers <= 0 {
		cfg.RAG.EmbedWorkers = 1
	}
	if cfg.RAG.Index == "" {
		cfg.RAG.Index = IndexMemory
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaultLogFile
	}
}

func applyLLMDefaults(c *LLMConfig, model string) {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOllama
	}
	if c.BaseURL == "" {
		if c.Provider == ProviderOpenAI {
			c.BaseURL = defaultOpenAIURL
		} else {
			c.BaseURL = defaultOllamaURL
		}
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = defaultTimeoutSecs
	}
}

func (c *Config) Validate() error {
	for name, llm := range map[string]LLMConfig{"embed_llm": c.EmbedLLM, "chat_llm": c.ChatLLM} {
		if llm.Provider != ProviderOllama && llm.Provider != ProviderOpenAI {
			return fmt.Errorf("%s: unknown provider %q", name, llm.Provider)
		}
	}
	if c.RAG.Index != IndexMemory && c.RAG.Index != IndexChromem {
		return fmt.Errorf("rag: unknown index %q", c.RAG.Index)
	}
	return nil
}

// Timeout is the per-request deadline for this endpoint.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// APIKey returns the inline key, falling back to the environment variable
// named by KeyEnv.
func (c *LLMConfig) APIKey() string {
	if c.Key != "" {
		return c.Key
	}
	if c.KeyEnv != "" {
		return os.Getenv(c.KeyEnv)
	}
	return ""
}
