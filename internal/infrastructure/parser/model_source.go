package parser

import (
	"context"
	"fmt"
	"log/slog"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
	"LegalScanner/internal/scanner"
)

// ModelSource discovers candidates on pages the language model suggests
// for a topic, scanned with the generic link strategy. Scheduled runs pass
// an empty topic and get nothing; suggestions only make sense for an
// explicit research topic.
type ModelSource struct {
	suggester ports.SourceSuggester
	links     *LinkScanner
	maxLinks  int
	logger    *slog.Logger
}

var _ ports.LinkSource = (*ModelSource)(nil)

// NewModelSource combines a source suggester with the generic link scanner.
func NewModelSource(suggester ports.SourceSuggester, links *LinkScanner, maxLinks int, logger *slog.Logger) *ModelSource {
	return &ModelSource{
		suggester: suggester,
		links:     links,
		maxLinks:  maxLinks,
		logger:    logger,
	}
}

// Discover asks the model for authoritative pages and scans them.
func (m *ModelSource) Discover(ctx context.Context, topic string) ([]domain.CandidateLink, error) {
	if topic == "" {
		return nil, nil
	}
	if m.suggester == nil || m.links == nil {
		return nil, nil
	}

	urls, err := m.suggester.SuggestSources(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("suggest sources: %w", err)
	}
	if len(urls) == 0 {
		return nil, nil
	}

	if m.logger != nil {
		m.logger.Debug("model suggested sources", "topic", topic, "count", len(urls))
	}

	pages := make([]scanner.Page, 0, len(urls))
	for _, u := range urls {
		pages = append(pages, scanner.Page{URL: u})
	}

	return m.links.Scan(ctx, scanner.Request{
		SiteName: "model-suggested",
		Topic:    topic,
		Pages:    pages,
		MaxLinks: m.maxLinks,
	})
}
