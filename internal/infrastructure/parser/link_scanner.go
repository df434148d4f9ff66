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

var (
	defaultExtensions = []string{".pdf", ".doc", ".docx", ".html", ".htm"}
	defaultKeywords   = []string{"act", "law", "regulation", "bill", "statute", "gazette", "rule"}
)

// LinkScanner is the generic strategy: it pulls every anchor off a page,
// resolves it against the page URL, and keeps candidates that look like
// legal documents by extension or keyword.
type LinkScanner struct {
	client     *http.Client
	logger     *slog.Logger
	extensions []string
	keywords   []string
}

// NewLinkScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewLinkScanner(client *http.Client, logger *slog.Logger) *LinkScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &LinkScanner{
		client:     client,
		logger:     logger,
		extensions: defaultExtensions,
		keywords:   defaultKeywords,
	}
}

// Name identifies the strategy inside the registry.
func (l *LinkScanner) Name() string {
	return "links"
}

// Scan walks each configured page and returns filtered candidate links.
// A page that cannot be fetched contributes nothing; the run keeps going.
func (l *LinkScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateLink, error) {
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no pages provided for site %s", req.SiteName)
	}

	results := make([]domain.CandidateLink, 0)
	seen := map[string]struct{}{}

	for _, page := range req.Pages {
		doc, base, err := l.fetchDocument(ctx, page.URL)
		if err != nil {
			l.debug("page fetch failed", "page", page.URL, "error", err)
			continue
		}

		count := 0
		doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if req.MaxLinks > 0 && count >= req.MaxLinks {
				return false
			}

			href, _ := sel.Attr("href")
			absolute, ok := resolveLink(base, href)
			if !ok {
				return true
			}
			if !l.matches(absolute) {
				return true
			}
			if _, dup := seen[absolute]; dup {
				return true
			}

			seen[absolute] = struct{}{}
			count++
			results = append(results, domain.CandidateLink{
				URL:          absolute,
				SourcePage:   page.URL,
				Topic:        req.Topic,
				Jurisdiction: req.Jurisdiction,
			})
			return true
		})
	}

	return results, nil
}

func (l *LinkScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LegalScanner/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}

	base := resp.Request.URL
	if base == nil {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse base url: %w", err)
		}
	}

	return doc, base, nil
}

func (l *LinkScanner) matches(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, ext := range l.extensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	for _, kw := range l.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// resolveLink turns href into an absolute URL relative to base. Fragment-only
// references and unparsable hrefs are rejected.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

func (l *LinkScanner) debug(msg string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
