package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/scanner"
)

// IBBIScanner targets the IBBI legal-framework listing. It keeps only PDF
// links whose anchor text mentions insolvency or bankruptcy and derives a
// category hint from the anchor text so the classifier has a head start.
type IBBIScanner struct {
	client *http.Client
	logger *slog.Logger
}

// NewIBBIScanner wires an HTTP client; a nil client gets a 30s timeout,
// the IBBI site is slow.
func NewIBBIScanner(client *http.Client, logger *slog.Logger) *IBBIScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &IBBIScanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *IBBIScanner) Name() string {
	return "ibbi"
}

// Scan extracts IBC-related PDF links from each configured listing page.
func (s *IBBIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateLink, error) {
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no pages provided for site %s", req.SiteName)
	}

	results := make([]domain.CandidateLink, 0)
	seen := map[string]struct{}{}

	for _, page := range req.Pages {
		base, err := url.Parse(page.URL)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", page.Name, err)
		}

		doc, err := s.fetchDocument(ctx, page.URL)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("page fetch failed", "page", page.URL, "error", err)
			}
			continue
		}

		doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(href)), ".pdf") {
				return
			}

			absolute, ok := resolveLink(base, href)
			if !ok {
				return
			}

			text := strings.ToLower(strings.TrimSpace(sel.Text()))
			if !strings.Contains(text, "insolvency") && !strings.Contains(text, "bankruptcy") {
				return
			}
			if _, dup := seen[absolute]; dup {
				return
			}
			seen[absolute] = struct{}{}

			results = append(results, domain.CandidateLink{
				URL:          absolute,
				SourcePage:   page.URL,
				Topic:        req.Topic,
				Jurisdiction: req.Jurisdiction,
				CategoryHint: categoryFromText(text),
			})
		})
	}

	return results, nil
}

func (s *IBBIScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LegalScanner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ibbi returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

func categoryFromText(text string) string {
	switch {
	case strings.Contains(text, "rule"):
		return domain.CategoryRegulation
	case strings.Contains(text, "regulation"):
		return domain.CategoryRegulation
	case strings.Contains(text, "circular"), strings.Contains(text, "guideline"):
		return domain.CategoryNotice
	case strings.Contains(text, "act"):
		return domain.CategoryLegislation
	default:
		return ""
	}
}
