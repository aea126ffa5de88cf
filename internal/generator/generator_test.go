package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/models"
)

// fakeModel returns a canned reply and records the prompt it was given.
type fakeModel struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = tc.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func testOptions() Options {
	return Options{MaxContextChars: 1500, MaxTokens: 256, Timeout: time.Minute}
}

func TestAnswer_NoChunks(t *testing.T) {
	model := &fakeModel{reply: "should not be used"}
	g := NewWithModel(model, testOptions())

	got, err := g.Answer(context.Background(), "anything?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.NoContextAnswer {
		t.Errorf("answer = %q, want %q", got, models.NoContextAnswer)
	}
	if model.calls != 0 {
		t.Errorf("model invoked %d times, want 0", model.calls)
	}
}

func TestAnswer_MarkerExtraction(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			"answer after marker",
			"some prompt echo\nFINAL ANSWER:\n  Paris is the capital.  ",
			"Paris is the capital.",
		},
		{
			"last marker wins",
			"FINAL ANSWER:\nechoed instructions\nFINAL ANSWER:\nthe real answer",
			"the real answer",
		},
		{
			"no marker falls back to full output",
			"  just an answer  ",
			"just an answer",
		},
		{
			"refusal comes through verbatim",
			"FINAL ANSWER:\n" + models.RefusalAnswer,
			models.RefusalAnswer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithModel(&fakeModel{reply: tt.reply}, testOptions())
			got, err := g.Answer(context.Background(), "q?", []string{"some context"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("answer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswer_PromptContainsRules(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	g := NewWithModel(model, testOptions())

	if _, err := g.Answer(context.Background(), "what is X?", []string{"chunk one", "chunk two"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"ONLY the information provided in the CONTEXT",
		models.RefusalAnswer,
		"chunk one\n\nchunk two",
		"what is X?",
		models.AnswerMarker,
	} {
		if !strings.Contains(model.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnswer_ContextTruncation(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	opts := testOptions()
	opts.MaxContextChars = 50
	g := NewWithModel(model, opts)

	long := strings.Repeat("abcde ", 40) // 240 chars
	if _, err := g.Answer(context.Background(), "q?", []string{long, long}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := strings.Index(model.prompt, `"""`)
	end := strings.LastIndex(model.prompt, `"""`)
	if start < 0 || end <= start {
		t.Fatalf("prompt has no delimited context: %q", model.prompt)
	}
	ctxLen := end - (start + 3)
	if ctxLen > 50 {
		t.Errorf("context is %d chars, want <= 50", ctxLen)
	}
}

func TestAnswer_ModelError(t *testing.T) {
	g := NewWithModel(&fakeModel{err: errors.New("boom")}, testOptions())
	if _, err := g.Answer(context.Background(), "q?", []string{"ctx"}); err == nil {
		t.Fatal("expected error from failing model")
	}
}

func TestAnswer_UnicodeSafeTruncation(t *testing.T) {
	// multi-byte runes near the budget must not be split
	model := &fakeModel{reply: "ok"}
	opts := testOptions()
	opts.MaxContextChars = 7
	g := NewWithModel(model, opts)

	if _, err := g.Answer(context.Background(), "q?", []string{"ééééé"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(model.prompt, "ééé") {
		t.Errorf("expected truncated context on a rune boundary, prompt: %q", model.prompt)
	}
	if !utf8.ValidString(model.prompt) {
		t.Error("prompt is not valid UTF-8, truncation split a rune")
	}
}
