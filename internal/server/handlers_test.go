package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LegalScanner/internal/config"
	"LegalScanner/internal/domain"
)

type stubRepository struct {
	docs    []domain.Document
	listErr error
	tracked map[string]bool
}

func (s *stubRepository) UpsertDocument(ctx context.Context, doc domain.Document) error {
	return nil
}

func (s *stubRepository) KnownURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	return nil, nil
}

func (s *stubRepository) ListByTopic(ctx context.Context, topic string) ([]domain.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Document
	for _, doc := range s.docs {
		if doc.Topic == topic {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *stubRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.docs, nil
}

func (s *stubRepository) TrackClick(ctx context.Context, url string) (bool, error) {
	return s.tracked[url], nil
}

type stubRunner struct {
	mu     sync.Mutex
	topics []string
	done   chan struct{}
}

func (s *stubRunner) Run(ctx context.Context, topic string) (domain.RunReport, error) {
	s.mu.Lock()
	s.topics = append(s.topics, topic)
	s.mu.Unlock()
	close(s.done)
	return domain.RunReport{RunID: "test-run"}, nil
}

func newTestServer(repo *stubRepository, runner Runner) *httptest.Server {
	s := New(repo, runner, nil, config.ServerConfig{}, nil)
	return httptest.NewServer(s.routes())
}

func TestListAllGroupsByJurisdictionAndCategory(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{docs: []domain.Document{
		{URL: "https://gov.example/a.pdf", Title: "A", Jurisdiction: "India", Category: domain.CategoryLegislation},
		{URL: "https://gov.example/b.pdf", Title: "B", Jurisdiction: "India", Category: domain.CategoryLegislation},
		{URL: "https://gov.example/c.pdf", Title: "C", Jurisdiction: "India", Category: domain.CategoryRegulation},
		{URL: "https://gov.example/d.pdf", Title: "D"},
	}}
	ts := newTestServer(repo, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/documents")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var grouped map[string]map[string][]documentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grouped))

	assert.Len(t, grouped["India"][domain.CategoryLegislation], 2)
	assert.Len(t, grouped["India"][domain.CategoryRegulation], 1)
	assert.Len(t, grouped["Other"]["Uncategorized"], 1)
	assert.Equal(t, "D", grouped["Other"]["Uncategorized"][0].Title)
}

func TestListByTopicFiltersDocuments(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{docs: []domain.Document{
		{URL: "https://gov.example/a.pdf", Title: "A", Topic: "insolvency", Jurisdiction: "India", Category: domain.CategoryRegulation},
		{URL: "https://gov.example/b.pdf", Title: "B", Topic: "tax", Jurisdiction: "India", Category: domain.CategoryRegulation},
	}}
	ts := newTestServer(repo, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/documents/insolvency")
	require.NoError(t, err)
	defer resp.Body.Close()

	var grouped map[string]map[string][]documentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grouped))

	views := grouped["India"][domain.CategoryRegulation]
	require.Len(t, views, 1)
	assert.Equal(t, "A", views[0].Title)
}

func TestListErrorRespondsEmptyNotFailed(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{listErr: fmt.Errorf("database gone")}
	ts := newTestServer(repo, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/documents")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var grouped map[string]map[string][]documentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grouped))
	assert.Empty(t, grouped)
}

func TestTrackClick(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{tracked: map[string]bool{"https://gov.example/a.pdf": true}}
	ts := newTestServer(repo, nil)
	defer ts.Close()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"known url", `{"url":"https://gov.example/a.pdf"}`, http.StatusOK},
		{"unknown url", `{"url":"https://gov.example/missing.pdf"}`, http.StatusNotFound},
		{"missing url", `{}`, http.StatusBadRequest},
		{"invalid json", `not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/track_click", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRunSchedulesInBackground(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{done: make(chan struct{})}
	ts := newTestServer(&stubRepository{}, runner)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/run", "application/json", strings.NewReader(`{"topic":"insolvency"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background run never started")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.topics, 1)
	assert.Equal(t, "insolvency", runner.topics[0])
}

func TestRunWithoutPipelineConfigured(t *testing.T) {
	t.Parallel()

	ts := newTestServer(&stubRepository{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(&stubRepository{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
