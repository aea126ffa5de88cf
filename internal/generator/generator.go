// Package generator builds the constrained answer prompt and invokes
// the text-generation model.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// Options bound the prompt and the model call.
type Options struct {
	MaxContextChars int
	MaxTokens       int
	Timeout         time.Duration
}

// Generator answers questions from retrieved context. The underlying
// model client is initialized at most once and shared across requests.
type Generator struct {
	cfg  config.LLMConfig
	opts Options

	once    sync.Once
	model   llms.Model
	initErr error
}

// New creates a generator for the configured generation endpoint. The
// model client is not built until the first Answer call.
func New(cfg config.LLMConfig, opts Options) *Generator {
	return &Generator{cfg: cfg, opts: opts}
}

// NewWithModel creates a generator around an existing model client.
func NewWithModel(model llms.Model, opts Options) *Generator {
	g := &Generator{opts: opts}
	g.once.Do(func() { g.model = model })
	return g
}

// Answer produces an answer for the question from the retrieved chunks.
// With no chunks it returns the fixed no-context answer without calling
// the model. The model call is deterministic (temperature 0) and bounded
// by the configured timeout; expiry surfaces as a retryable error.
func (g *Generator) Answer(ctx context.Context, question string, chunks []string) (string, error) {
	if len(chunks) == 0 {
		return models.NoContextAnswer, nil
	}

	g.once.Do(func() {
		g.model, g.initErr = newModel(g.cfg)
		if g.initErr == nil {
			log.Debug().
				Str("provider", g.cfg.Provider).
				Str("model", g.cfg.Model).
				Msg("generation model initialized")
		}
	})
	if g.initErr != nil {
		return "", fmt.Errorf("failed to initialize generation model: %w", g.initErr)
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, g.buildContext(chunks), question)

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	resp, err := g.model.GenerateContent(ctx, content,
		llms.WithTemperature(0),
		llms.WithMaxTokens(g.opts.MaxTokens),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("generation timed out after %s, retry later: %w", g.opts.Timeout, err)
		}
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation model returned no choices")
	}

	return ExtractAnswer(resp.Choices[0].Content), nil
}

// buildContext joins chunks in retrieval order with blank-line
// separators, then truncates the joined text to the character budget.
// Truncation is on the whole context, so trailing chunks may be
// partially or fully dropped.
func (g *Generator) buildContext(chunks []string) string {
	joined := strings.Join(chunks, "\n\n")
	max := g.opts.MaxContextChars
	if max <= 0 || len(joined) <= max {
		return joined
	}
	// back up to a rune boundary
	for max > 0 && !utf8.RuneStart(joined[max]) {
		max--
	}
	return joined[:max]
}

// ExtractAnswer takes everything after the last answer marker. Some
// models echo the prompt, so the last occurrence is the right one. If
// the marker never appears the whole output is the answer.
func ExtractAnswer(raw string) string {
	if idx := strings.LastIndex(raw, models.AnswerMarker); idx >= 0 {
		raw = raw[idx+len(models.AnswerMarker):]
	}
	return strings.TrimSpace(raw)
}

func newModel(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "", "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
}
