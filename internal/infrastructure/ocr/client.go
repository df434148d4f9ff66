package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"LegalScanner/internal/ports"
)

// Client talks to an external inference service that renders scanned
// documents and runs optical character recognition on them.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.OCREngine = (*Client)(nil)

// NewClient creates a reusable HTTP client. OCR on large scans is slow,
// so the timeout is generous.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Recognize posts the raw document for recognition and returns its text.
func (c *Client) Recognize(ctx context.Context, raw []byte, mimeType string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("ocr client misconfigured")
	}

	payload := map[string]any{
		"content":   base64.StdEncoding.EncodeToString(raw),
		"mime_type": mimeType,
	}

	var resp struct {
		Text string `json:"text"`
	}

	if err := c.post(ctx, "/recognize", payload, &resp); err != nil {
		return "", err
	}

	return resp.Text, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
