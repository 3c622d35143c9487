// Package answer turns retrieved records into a grounded natural-language
// answer.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/genai"
	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

const promptTemplate = "Answer the question using the knowledge below.\n\nKnowledge:\n%s\n\nQuestion:\n%s"

// Synthesizer assembles retrieved record bodies into a prompt and asks the
// generation provider for an answer. It never fails: a provider error is
// logged and replaced by the configured fallback answer, so the caller can
// still show the source list.
type Synthesizer struct {
	generator genai.Generator
	system    string
	fallback  string
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer with the given system prompt and
// fallback answer.
func NewSynthesizer(generator genai.Generator, system, fallback string, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		generator: generator,
		system:    system,
		fallback:  fallback,
		logger:    logger,
	}
}

// Synthesize answers the query from the given records. Record bodies are
// concatenated in retrieval order into the knowledge block; source URLs are
// returned in the same order and are always present, even when the answer
// degrades to the fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, records []*models.Record) (string, []string) {
	sources := make([]string, 0, len(records))
	bodies := make([]string, 0, len(records))
	for _, rec := range records {
		sources = append(sources, rec.URL)
		bodies = append(bodies, rec.Body)
	}

	if len(records) == 0 {
		s.logger.Warn("no records retrieved, returning fallback answer",
			zap.String("query", query))
		return s.fallback, sources
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(bodies, "\n\n"), query)
	reply, err := s.generator.Complete(ctx, s.system, prompt)
	if err != nil {
		s.logger.Warn("answer generation failed, returning fallback answer",
			zap.String("query", query),
			zap.Error(err))
		return s.fallback, sources
	}
	return reply, sources
}
