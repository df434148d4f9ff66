package usecase

import (
	"context"
	"fmt"
	"testing"

	"LegalScanner/internal/domain"
)

type fakeSource struct {
	candidates []domain.CandidateLink
	err        error
}

func (f *fakeSource) Discover(ctx context.Context, topic string) ([]domain.CandidateLink, error) {
	return f.candidates, f.err
}

type fakeValidator struct {
	validations map[string]domain.Validation
}

func (f *fakeValidator) Validate(ctx context.Context, url string) domain.Validation {
	return f.validations[url]
}

type fakeExtractor struct {
	extractions map[string]domain.Extraction
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, kind domain.ContentKind) domain.Extraction {
	return f.extractions[url]
}

type fakeClassifier struct {
	verdicts map[string]domain.Verdict
	calls    []string
}

func (f *fakeClassifier) Classify(ctx context.Context, extraction domain.Extraction, candidate domain.CandidateLink) domain.Verdict {
	f.calls = append(f.calls, candidate.URL)
	return f.verdicts[candidate.URL]
}

type fakeRepository struct {
	known     map[string]bool
	upserts   []domain.Document
	upsertErr map[string]error
}

func (f *fakeRepository) UpsertDocument(ctx context.Context, doc domain.Document) error {
	if err := f.upsertErr[doc.URL]; err != nil {
		return err
	}
	f.upserts = append(f.upserts, doc)
	return nil
}

func (f *fakeRepository) KnownURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	return f.known, nil
}

func (f *fakeRepository) ListByTopic(ctx context.Context, topic string) ([]domain.Document, error) {
	return nil, nil
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	return nil, nil
}

func (f *fakeRepository) TrackClick(ctx context.Context, url string) (bool, error) {
	return false, nil
}

type memoryCache struct {
	entries map[string][]byte
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *memoryCache) Put(key string, value []byte) {
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = value
}

func TestFilterNovel(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"A": true, "B": true}
	candidates := []domain.CandidateLink{
		{URL: "A"}, {URL: "C"}, {URL: "D"}, {URL: "B"},
	}

	fresh := FilterNovel(candidates, known)

	if len(fresh) != 2 {
		t.Fatalf("expected [C D], got %+v", fresh)
	}
	if fresh[0].URL != "C" || fresh[1].URL != "D" {
		t.Fatalf("order not preserved: %+v", fresh)
	}
}

func TestFilterNovelDropsInBatchDuplicates(t *testing.T) {
	t.Parallel()

	candidates := []domain.CandidateLink{
		{URL: "X", SourcePage: "p1"},
		{URL: "Y", SourcePage: "p1"},
		{URL: "X", SourcePage: "p2"},
	}

	fresh := FilterNovel(candidates, nil)

	if len(fresh) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", fresh)
	}
	if fresh[0].SourcePage != "p1" {
		t.Fatalf("first occurrence should win: %+v", fresh[0])
	}
}

// The end-to-end scenario: two PDF links, both valid, one with a text
// layer and one whose text came through the OCR path, classifier accepts
// only the first. Exactly one document must be persisted.
func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	actURL := "https://gov.example/act/2020.pdf"
	scanURL := "https://gov.example/gazette/scan.pdf"

	source := &fakeSource{candidates: []domain.CandidateLink{
		{URL: actURL, Topic: "company law", Jurisdiction: "India"},
		{URL: scanURL, Topic: "company law", Jurisdiction: "India"},
	}}
	validator := &fakeValidator{validations: map[string]domain.Validation{
		actURL:  {OK: true, Kind: domain.KindPDF},
		scanURL: {OK: true, Kind: domain.KindPDF},
	}}
	extractor := &fakeExtractor{extractions: map[string]domain.Extraction{
		actURL:  {Title: "Companies Act", Text: "An Act to consolidate company law.", Kind: domain.KindPDF},
		scanURL: {Title: "scan.pdf", Text: "OCR recovered text", Kind: domain.KindPDF},
	}}
	classifier := &fakeClassifier{verdicts: map[string]domain.Verdict{
		actURL: {Relevant: true, Title: "Companies Act 2013", Date: "2013-08-29",
			Summary: "Consolidates company law.", Category: domain.CategoryLegislation},
		scanURL: {},
	}}
	repo := &fakeRepository{}

	p := NewPipeline(PipelineDeps{
		Source:     source,
		Validator:  validator,
		Extractor:  extractor,
		Classifier: classifier,
		Repository: repo,
	})

	report, err := p.Run(context.Background(), "company law")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if report.Discovered != 2 || report.Fresh != 2 || report.Validated != 2 {
		t.Fatalf("unexpected report counts: %+v", report)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("expected exactly 1 persisted document, got %d", len(repo.upserts))
	}

	doc := repo.upserts[0]
	if doc.URL != actURL {
		t.Fatalf("wrong document persisted: %s", doc.URL)
	}
	if doc.Title != "Companies Act 2013" || doc.PublicationDate != "2013-08-29" {
		t.Fatalf("classifier metadata not applied: %+v", doc)
	}
	if doc.Category != domain.CategoryLegislation || doc.ContentType != domain.KindPDF {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Topic != "company law" || doc.Jurisdiction != "India" {
		t.Fatalf("candidate context lost: %+v", doc)
	}
}

func TestPipelineSkipsKnownURLs(t *testing.T) {
	t.Parallel()

	source := &fakeSource{candidates: []domain.CandidateLink{
		{URL: "https://gov.example/old.pdf", Topic: "t"},
		{URL: "https://gov.example/new.pdf", Topic: "t"},
	}}
	classifier := &fakeClassifier{verdicts: map[string]domain.Verdict{}}
	repo := &fakeRepository{known: map[string]bool{"https://gov.example/old.pdf": true}}

	p := NewPipeline(PipelineDeps{
		Source:     source,
		Classifier: classifier,
		Repository: repo,
	})

	report, err := p.Run(context.Background(), "t")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Fresh != 1 {
		t.Fatalf("expected 1 fresh candidate, got %d", report.Fresh)
	}
	if len(classifier.calls) != 1 || classifier.calls[0] != "https://gov.example/new.pdf" {
		t.Fatalf("classifier saw wrong candidates: %v", classifier.calls)
	}
}

func TestPipelineWriteFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	first := "https://gov.example/a.pdf"
	second := "https://gov.example/b.pdf"

	source := &fakeSource{candidates: []domain.CandidateLink{
		{URL: first, Topic: "t"}, {URL: second, Topic: "t"},
	}}
	classifier := &fakeClassifier{verdicts: map[string]domain.Verdict{
		first:  {Relevant: true, Title: "A"},
		second: {Relevant: true, Title: "B"},
	}}
	repo := &fakeRepository{upsertErr: map[string]error{first: fmt.Errorf("disk full")}}

	p := NewPipeline(PipelineDeps{
		Source:     source,
		Classifier: classifier,
		Repository: repo,
	})

	report, err := p.Run(context.Background(), "t")
	if err != nil {
		t.Fatalf("Run should survive a single write failure: %v", err)
	}
	if len(repo.upserts) != 1 || repo.upserts[0].URL != second {
		t.Fatalf("second candidate should still be persisted: %+v", repo.upserts)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("write failure should be recorded: %+v", report.Errors)
	}
}

func TestPipelineUsesCachedVerdict(t *testing.T) {
	t.Parallel()

	url := "https://gov.example/cached.pdf"
	source := &fakeSource{candidates: []domain.CandidateLink{{URL: url, Topic: "t"}}}
	classifier := &fakeClassifier{verdicts: map[string]domain.Verdict{
		url: {Relevant: true, Title: "fresh classification"},
	}}
	repo := &fakeRepository{}
	cache := &memoryCache{entries: map[string][]byte{
		url: []byte(`{"Relevant":true,"Title":"cached title"}`),
	}}

	p := NewPipeline(PipelineDeps{
		Source:     source,
		Classifier: classifier,
		Repository: repo,
		Cache:      cache,
	})

	if _, err := p.Run(context.Background(), "t"); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(classifier.calls) != 0 {
		t.Fatalf("classifier should not be called on a cache hit: %v", classifier.calls)
	}
	if len(repo.upserts) != 1 || repo.upserts[0].Title != "cached title" {
		t.Fatalf("cached verdict not applied: %+v", repo.upserts)
	}
}

func TestPipelineCancellationBetweenCandidates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{candidates: []domain.CandidateLink{
		{URL: "https://gov.example/a.pdf", Topic: "t"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(PipelineDeps{
		Source:     source,
		Classifier: &fakeClassifier{},
		Repository: &fakeRepository{},
	})

	if _, err := p.Run(ctx, "t"); err == nil {
		t.Fatal("cancelled run should report ctx error")
	}
}
