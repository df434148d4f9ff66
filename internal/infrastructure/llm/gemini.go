package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LegalScanner/internal/config"
	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

const (
	maxPromptChars     = 12000
	suggestAttempts    = 3
	suggestInitialWait = time.Second
	suggestMaxWait     = 8 * time.Second
)

// GeminiClient implements the relevance classifier and the source
// suggester on top of the generativelanguage REST API.
//
// The classifier is a non-deterministic external dependency and the
// dominant failure mode of the whole pipeline. Classify therefore returns
// a plain Verdict: malformed output, refusals, and network errors all come
// back as a not-relevant verdict, never as an error.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Classifier = (*GeminiClient)(nil)
var _ ports.SourceSuggester = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Classify asks the model for exactly one JSON object describing the
// document's relevance to the candidate's topic.
func (c *GeminiClient) Classify(ctx context.Context, extraction domain.Extraction, candidate domain.CandidateLink) domain.Verdict {
	prompt := classificationPrompt(candidate)

	parts := []part{{Text: prompt}}
	if strings.TrimSpace(extraction.Text) != "" {
		text := extraction.Text
		if len(text) > maxPromptChars {
			text = text[:maxPromptChars]
		}
		parts = append(parts, part{Text: "Document text:\n" + text})
	} else if extraction.Kind == domain.KindPDF && len(extraction.Raw) > 0 {
		// No usable text: hand the model the document itself.
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "application/pdf",
			Data:     base64.StdEncoding.EncodeToString(extraction.Raw),
		}})
	} else {
		c.warn("nothing to classify", "url", candidate.URL)
		return domain.Verdict{}
	}

	raw, err := c.generate(ctx, parts)
	if err != nil {
		c.warn("model call failed", "url", candidate.URL, "error", err)
		return domain.Verdict{}
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		c.warn("unparseable model output", "url", candidate.URL, "error", err)
		return domain.Verdict{}
	}

	return verdict
}

// SuggestSources asks the model for authoritative page URLs for a topic,
// retrying with bounded exponential backoff. Only http(s) strings survive.
func (c *GeminiClient) SuggestSources(ctx context.Context, topic string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Return a JSON array of 5-15 authoritative government or legal website URLs "+
			"(strings) for researching the topic: %s. Return ONLY the JSON array.", topic)

	wait := suggestInitialWait
	var lastErr error
	for attempt := 1; attempt <= suggestAttempts; attempt++ {
		raw, err := c.generate(ctx, []part{{Text: prompt}})
		if err == nil {
			urls, parseErr := parseURLList(raw)
			if parseErr == nil {
				return urls, nil
			}
			err = parseErr
		}

		lastErr = err
		c.warn("source suggestion attempt failed", "attempt", attempt, "error", err)
		if attempt < suggestAttempts {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			wait *= 2
			if wait > suggestMaxWait {
				wait = suggestMaxWait
			}
		}
	}

	return nil, fmt.Errorf("suggest sources after %d attempts: %w", suggestAttempts, lastErr)
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// generate posts parts to generateContent and returns the first candidate's
// concatenated text.
func (c *GeminiClient) generate(ctx context.Context, parts []part) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	if len(decoded.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var out strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String(), nil
}

func classificationPrompt(candidate domain.CandidateLink) string {
	return fmt.Sprintf(
		`You review legal documents. Decide whether the document below is relevant to the topic %q in the jurisdiction %q.

Respond with exactly one JSON object and nothing else. If the document is not relevant:
{"is_relevant": false}
If it is relevant:
{"is_relevant": true, "title": "official title", "date": "YYYY-MM-DD", "summary": "one paragraph", "category": "one of: Legislation, Regulation, Case Law, Official Notice, Policy/Report, Bill"}

Estimate the date if it is not stated.`,
		candidate.Topic, candidate.Jurisdiction)
}

func parseURLList(raw string) ([]string, error) {
	var parsed []string
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse url list: %w", err)
	}

	urls := make([]string, 0, len(parsed))
	for _, u := range parsed {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func (c *GeminiClient) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
