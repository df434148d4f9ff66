// Package content fetches validated URLs and turns them into plain text.
package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

const maxBodyBytes = 32 << 20 // document bodies can be large, not unbounded

// Extractor downloads a document and extracts its visible text. It never
// returns an error: a failed fetch or decode degrades to a placeholder
// title derived from the URL's last path segment, so downstream stages can
// still record something for the candidate.
type Extractor struct {
	client *http.Client
	ocr    ports.OCREngine
	logger *slog.Logger
}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client and an optional OCR engine for PDFs
// without a text layer. A nil client gets a 60s timeout.
func NewExtractor(client *http.Client, ocr ports.OCREngine, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Extractor{client: client, ocr: ocr, logger: logger}
}

// Extract fetches the full body and branches on content kind.
func (e *Extractor) Extract(ctx context.Context, rawURL string, kind domain.ContentKind) domain.Extraction {
	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		e.debug("fetch failed", "url", rawURL, "error", err)
		return degraded(rawURL, kind)
	}

	switch kind {
	case domain.KindPDF:
		return e.extractPDF(ctx, rawURL, body)
	default:
		text := htmlToText(body)
		title := htmlTitle(body)
		if title == "" {
			title = firstLine(text)
		}
		return domain.Extraction{
			Title: title,
			Text:  text,
			Raw:   body,
			Kind:  kind,
		}
	}
}

func (e *Extractor) extractPDF(ctx context.Context, rawURL string, body []byte) domain.Extraction {
	text, err := pdfText(body)
	if err != nil {
		e.debug("pdf text layer unreadable", "url", rawURL, "error", err)
	}

	if strings.TrimSpace(text) == "" && e.ocr != nil {
		// Scanned gazettes routinely ship with no text layer.
		recognized, ocrErr := e.ocr.Recognize(ctx, body, "application/pdf")
		if ocrErr != nil {
			e.debug("ocr fallback failed", "url", rawURL, "error", ocrErr)
		} else {
			text = recognized
		}
	}

	if strings.TrimSpace(text) == "" {
		ext := degraded(rawURL, domain.KindPDF)
		ext.Raw = body
		return ext
	}

	return domain.Extraction{
		Title: firstLine(text),
		Text:  normalizeWhitespace(text),
		Raw:   body,
		Kind:  domain.KindPDF,
	}
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LegalScanner/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("document returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// degraded builds the fallback result: last path segment as title, no text.
func degraded(rawURL string, kind domain.ContentKind) domain.Extraction {
	title := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		if segment := path.Base(parsed.Path); segment != "" && segment != "/" && segment != "." {
			title = segment
		}
	}
	return domain.Extraction{Title: title, Kind: kind, Degraded: true}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len(line) > 200 {
				line = line[:200]
			}
			return line
		}
	}
	return ""
}

func (e *Extractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
