package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig holds connection settings for one model endpoint.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "ollama" or "openai"
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Key      string `yaml:"key"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"` // "chromem" or "postgres"
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	VectorSize int    `yaml:"vector_size"`
	Debug      bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize       int `yaml:"chunk_size"`
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
	MaxTokens       int `yaml:"max_tokens"`
	GenTimeoutSec   int `yaml:"gen_timeout_sec"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	GenLLM   LLMConfig    `yaml:"gen_llm"`
	Store    StoreConfig  `yaml:"store"`
	RAG      RAGConfig    `yaml:"rag"`
}

const (
	defaultChunkSize       = 350
	defaultTopK            = 3
	defaultMaxContextChars = 1500
	defaultMaxTokens       = 256
	defaultGenTimeoutSec   = 60
	defaultMaxUploadMB     = 50
	defaultCollection      = "pdf_chunks"
)

// LoadConfig reads a YAML config file and fills in defaults for the
// knobs the file leaves unset. API keys may also come from the
// environment instead of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with all defaults applied, for callers that
// run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "./uploaded_pdfs"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chromemdb"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = defaultCollection
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.MaxContextChars <= 0 {
		c.RAG.MaxContextChars = defaultMaxContextChars
	}
	if c.RAG.MaxTokens <= 0 {
		c.RAG.MaxTokens = defaultMaxTokens
	}
	if c.RAG.GenTimeoutSec <= 0 {
		c.RAG.GenTimeoutSec = defaultGenTimeoutSec
	}
	if c.EmbedLLM.Key == "" {
		c.EmbedLLM.Key = os.Getenv("EMBED_API_KEY")
	}
	if c.GenLLM.Key == "" {
		c.GenLLM.Key = os.Getenv("GEN_API_KEY")
	}
}

// GenTimeout returns the generation timeout as a duration.
func (c *Config) GenTimeout() time.Duration {
	return time.Duration(c.RAG.GenTimeoutSec) * time.Second
}
