// Package telegram pushes run digests to a chat via the bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier formats a run report and sends it as one message. Documents
// link straight to their source URL, so link previews are disabled to
// keep multi-document digests readable.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishDigest sends a summary of the newly stored documents.
func (n *Notifier) PublishDigest(ctx context.Context, report domain.RunReport) error {
	if n.botToken == "" || n.chatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	payload, err := json.Marshal(map[string]any{
		"chat_id":                  n.chatID,
		"text":                     formatDigest(report),
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatDigest(report domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research run stored %d new document(s)", len(report.Stored))
	if report.Topic != "" {
		fmt.Fprintf(&b, " for %s", report.Topic)
	}
	b.WriteString("\n")

	for _, doc := range report.Stored {
		title := doc.Title
		if title == "" {
			title = doc.URL
		}
		if doc.Category != "" {
			fmt.Fprintf(&b, "\n%s [%s]\n%s\n", title, doc.Category, doc.URL)
		} else {
			fmt.Fprintf(&b, "\n%s\n%s\n", title, doc.URL)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(&b, "\n%d candidate(s) failed during the run.\n", len(report.Errors))
	}

	return b.String()
}
