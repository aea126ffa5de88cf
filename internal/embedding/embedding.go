// Package embedding wraps a langchaingo embedder behind a provider that
// initializes the underlying model client at most once per process and
// is safe to share across concurrent requests.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
)

// Provider turns text into fixed-length vectors. The underlying client
// is built lazily on first use and reused for the process lifetime.
type Provider struct {
	cfg config.LLMConfig

	once     sync.Once
	embedder embeddings.Embedder
	initErr  error
}

// NewProvider creates a provider for the configured embedding endpoint.
// No network connection is made until the first Embed call.
func NewProvider(cfg config.LLMConfig) *Provider {
	return &Provider{cfg: cfg}
}

// NewProviderWithEmbedder creates a provider around an existing
// embedder implementation.
func NewProviderWithEmbedder(e embeddings.Embedder) *Provider {
	p := &Provider{}
	p.once.Do(func() { p.embedder = e })
	return p
}

func (p *Provider) init() {
	p.once.Do(func() {
		p.embedder, p.initErr = newEmbedder(p.cfg)
		if p.initErr == nil {
			log.Debug().
				Str("provider", p.cfg.Provider).
				Str("model", p.cfg.Model).
				Msg("embedding model initialized")
		}
	})
}

// Embed returns one vector per input text, in input order. It never
// returns zero vectors on failure; the error carries the cause.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	p.init()
	if p.initErr != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", p.initErr)
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedOne embeds a single text. Defined as Embed([text])[0] so single
// and batch embedding stay consistent.
func (p *Provider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedder returned no vector")
	}
	return vectors[0], nil
}

func newEmbedder(cfg config.LLMConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, err
		}
		return embeddings.NewEmbedder(llm)
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, err
		}
		return embeddings.NewEmbedder(llm)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
