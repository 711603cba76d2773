package generate

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/docmind/internal/chunker"
)

// Generator turns document text into a raw mind map payload. Without a
// Completer it serves mock data built from the document itself.
type Generator struct {
	client       Completer
	stats        *LLMStats
	excerptRunes int
	log          *slog.Logger
}

func NewGenerator(client Completer, excerptRunes int, stats *LLMStats, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	return &Generator{client: client, stats: stats, excerptRunes: excerptRunes, log: log}
}

// Model names the backing model, or "mock".
func (g *Generator) Model() string {
	if g.client == nil {
		return "mock"
	}
	return g.client.Model()
}

func (g *Generator) Stats() *LLMStats { return g.stats }

// MindMap asks the model for a dual-language mind map. Transport errors are
// returned so the caller can retry; an unparsable reply is not an error and
// yields ParseFailedTree.
func (g *Generator) MindMap(ctx context.Context, text string) (any, error) {
	if g.client == nil {
		return MockTree(text), nil
	}

	excerpt := chunker.Excerpt(text, g.excerptRunes)
	prompt := BuildPrompt(excerpt)
	log := g.log.With("model", g.client.Model())
	log.Info("requesting mind map", "text_runes", len([]rune(text)), "prompt_tokens_est", chunker.EstimateTokens(prompt))

	start := time.Now()
	reply, err := g.client.Complete(ctx, SystemPrompt, prompt)
	elapsed := time.Since(start)
	if err != nil {
		g.stats.Record(elapsed, OutcomeError)
		return nil, err
	}

	v, err := ParseReply(reply)
	if err != nil {
		g.stats.Record(elapsed, OutcomeParseFailed)
		log.Warn("mind map reply unparsable", "error", err, "reply_len", len(reply))
		return ParseFailedTree(), nil
	}
	g.stats.Record(elapsed, OutcomeOK)
	log.Info("mind map generated", "duration_ms", elapsed.Milliseconds())
	return v, nil
}
