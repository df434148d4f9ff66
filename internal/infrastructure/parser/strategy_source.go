package parser

import (
	"context"
	"fmt"
	"log/slog"

	"LegalScanner/internal/config"
	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
	"LegalScanner/internal/scanner"
)

// StrategySource implements LinkSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	maxLinks int
	logger   *slog.Logger
}

var _ ports.LinkSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, maxLinks int, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		maxLinks: maxLinks,
		logger:   log,
	}
}

// Discover iterates over configured sites for the topic and executes their
// scanners. An empty topic matches every site.
func (s *StrategySource) Discover(ctx context.Context, topic string) ([]domain.CandidateLink, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("discover", "sites", len(s.sites), "topic", topic)

	var aggregated []domain.CandidateLink
	for _, site := range s.sites {
		if topic != "" && site.Topic != topic {
			continue
		}

		s.debug("process site", "site", site.Name, "scanner", site.Scanner, "pages", len(site.Pages))
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		req := scanner.Request{
			SiteName:     site.Name,
			Topic:        site.Topic,
			Jurisdiction: site.Jurisdiction,
			Pages:        toScannerPages(site.Pages),
			MaxLinks:     s.maxLinks,
			Options:      site.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
		}

		s.debug("site produced candidates", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	return aggregated, nil
}

func toScannerPages(cfg []config.PageConfig) []scanner.Page {
	pages := make([]scanner.Page, 0, len(cfg))
	for _, page := range cfg {
		pages = append(pages, scanner.Page{
			Name: page.Name,
			URL:  page.URL,
		})
	}
	return pages
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
