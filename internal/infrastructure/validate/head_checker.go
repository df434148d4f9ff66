package validate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

// HeadChecker probes a candidate URL with a metadata-only request. Every
// failure mode — timeout, DNS error, non-200, unknown content type —
// collapses to an invalid result. Validate has no error return on purpose.
type HeadChecker struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Validator = (*HeadChecker)(nil)

// NewHeadChecker wires an HTTP client; a nil client gets a 15s timeout.
// Redirects are followed by the default client policy.
func NewHeadChecker(client *http.Client, logger *slog.Logger) *HeadChecker {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HeadChecker{client: client, logger: logger}
}

// Validate issues a HEAD request and classifies the content type.
func (h *HeadChecker) Validate(ctx context.Context, rawURL string) domain.Validation {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		h.debug("invalid url", "url", rawURL, "error", err)
		return domain.Validation{}
	}
	req.Header.Set("User-Agent", "LegalScanner/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		h.debug("head request failed", "url", rawURL, "error", err)
		return domain.Validation{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.debug("head status rejected", "url", rawURL, "status", resp.Status)
		return domain.Validation{}
	}

	kind, ok := classifyContentType(resp.Header.Get("Content-Type"))
	if !ok {
		h.debug("unsupported content type", "url", rawURL, "contentType", resp.Header.Get("Content-Type"))
		return domain.Validation{}
	}

	return domain.Validation{OK: true, Kind: kind}
}

func classifyContentType(header string) (domain.ContentKind, bool) {
	lower := strings.ToLower(header)
	switch {
	case strings.Contains(lower, "pdf"):
		return domain.KindPDF, true
	case strings.Contains(lower, "html"):
		return domain.KindHTML, true
	case strings.Contains(lower, "text"):
		return domain.KindText, true
	default:
		return "", false
	}
}

func (h *HeadChecker) debug(msg string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
