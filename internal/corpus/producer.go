package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/genai"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

const summarizeSystemPrompt = "You condense web pages into short, factual knowledge snippets. Reply with the summary only."

// Producer builds the record corpus from a site's sitemap. Pages are fetched
// in sitemap order and appended to storage in that order; a failure on one
// page is logged and skipped so a single bad page never aborts the run.
type Producer struct {
	storage   storage.Storage
	generator genai.Generator
	client    *http.Client
	cfg       *config.CorpusConfig
	logger    *zap.Logger
	strips    []*regexp.Regexp
}

// NewProducer creates a corpus producer. The configured strip patterns are
// compiled once here; an invalid pattern is a configuration error.
func NewProducer(st storage.Storage, generator genai.Generator, client *http.Client, cfg *config.CorpusConfig, logger *zap.Logger) (*Producer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	strips := make([]*regexp.Regexp, 0, len(cfg.StripPatterns))
	for _, pat := range cfg.StripPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid strip pattern %q: %w", pat, err)
		}
		strips = append(strips, re)
	}

	return &Producer{
		storage:   st,
		generator: generator,
		client:    client,
		cfg:       cfg,
		logger:    logger,
		strips:    strips,
	}, nil
}

// Run fetches the sitemap and appends one record per page. Returns the number
// of records appended. Per-page fetch, extraction, and insert failures are
// logged and skipped; only a sitemap failure or context cancellation aborts.
func (p *Producer) Run(ctx context.Context) (int, error) {
	urls, err := FetchSitemapURLs(ctx, p.client, p.cfg.SitemapURL, p.cfg.UserAgent)
	if err != nil {
		return 0, fmt.Errorf("failed to list corpus pages: %w", err)
	}
	p.logger.Info("corpus build started",
		zap.String("sitemap", p.cfg.SitemapURL),
		zap.Int("pages", len(urls)))

	appended := 0
	for i, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return appended, err
		}
		if i > 0 && p.cfg.FetchDelayMS > 0 {
			time.Sleep(time.Duration(p.cfg.FetchDelayMS) * time.Millisecond)
		}

		rec, err := p.producePage(ctx, pageURL)
		if err != nil {
			p.logger.Warn("skipping page", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		if err := p.storage.AppendRecord(ctx, rec); err != nil {
			p.logger.Warn("skipping page", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		appended++
		p.logger.Debug("page indexed",
			zap.String("url", pageURL),
			zap.Int("position", rec.Position))
	}

	p.logger.Info("corpus build finished",
		zap.Int("appended", appended),
		zap.Int("skipped", len(urls)-appended))
	return appended, nil
}

func (p *Producer) producePage(ctx context.Context, pageURL string) (*models.Record, error) {
	page, err := p.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	title := p.strip(page.Title)
	body := excerpt(p.strip(page.Body), p.cfg.MaxBodyChars)
	if body == "" {
		return nil, fmt.Errorf("page has no extractable text")
	}

	if p.generator != nil && len([]rune(body)) > p.cfg.SummarizeThreshold {
		body = p.summarize(ctx, pageURL, body)
	}

	tag := models.NoTag
	if len(page.Tags) > 0 {
		tag = strings.Join(page.Tags, ", ")
	}

	return &models.Record{
		URL:   pageURL,
		Title: title,
		Tag:   tag,
		Body:  body,
	}, nil
}

func (p *Producer) fetchPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}
	return ExtractPage(resp.Body)
}

// summarize asks the generation provider for a condensed body. On provider
// failure the raw excerpt is kept, so the record is still produced.
func (p *Producer) summarize(ctx context.Context, pageURL, body string) string {
	prompt := fmt.Sprintf("Summarize the following page content in %d characters or less:\n\n%s",
		p.cfg.SummarizeThreshold, body)
	summary, err := p.generator.Complete(ctx, summarizeSystemPrompt, prompt)
	if err != nil || summary == "" {
		p.logger.Warn("summarization failed, keeping raw excerpt",
			zap.String("url", pageURL),
			zap.Error(err))
		return body
	}
	return summary
}

func (p *Producer) strip(s string) string {
	for _, re := range p.strips {
		s = re.ReplaceAllString(s, "")
	}
	return NormalizeWhitespace(s)
}

// excerpt returns at most maxChars runes of s. maxChars <= 0 disables the cut.
func excerpt(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return strings.TrimSpace(string(runes[:maxChars]))
}
