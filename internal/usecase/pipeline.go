package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"LegalScanner/internal/domain"
	"LegalScanner/internal/metrics"
	"LegalScanner/internal/ports"
)

// PipelineDeps wires all driven adapters into the research pipeline.
// Only Source and Repository are required; the rest degrade gracefully.
type PipelineDeps struct {
	Source      ports.LinkSource
	ModelSource ports.LinkSource
	Validator   ports.Validator
	Extractor   ports.Extractor
	Classifier  ports.Classifier
	Repository  ports.DocumentRepository
	Cache       ports.Cache
	Notifier    ports.Notifier
	Logger      *slog.Logger
}

// Pipeline implements the document research workflow: discover links,
// drop known ones, validate, extract, classify, persist.
type Pipeline struct {
	source      ports.LinkSource
	modelSource ports.LinkSource
	validator   ports.Validator
	extractor   ports.Extractor
	classifier  ports.Classifier
	repository  ports.DocumentRepository
	cache       ports.Cache
	notifier    ports.Notifier
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:      deps.Source,
		modelSource: deps.ModelSource,
		validator:   deps.Validator,
		extractor:   deps.Extractor,
		classifier:  deps.Classifier,
		repository:  deps.Repository,
		cache:       deps.Cache,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
	}
}

// Run executes one research cycle for the topic (empty topic means every
// configured site). Candidates are processed sequentially; a failure on
// one candidate is recorded and the batch continues. The run can be
// cancelled between candidates via ctx.
func (p *Pipeline) Run(ctx context.Context, topic string) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		Topic:     topic,
		StartedAt: time.Now(),
	}

	if p.source == nil {
		return report, fmt.Errorf("link source is not configured")
	}

	candidates, err := p.source.Discover(ctx, topic)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("discover_failed").Inc()
		return report, fmt.Errorf("discover links: %w", err)
	}

	if p.modelSource != nil {
		// Model-suggested pages enrich the configured sites; their total
		// failure must not fail the run.
		extra, mErr := p.modelSource.Discover(ctx, topic)
		if mErr != nil {
			p.warn("model source discovery failed", "error", mErr)
			report.Errors = append(report.Errors, fmt.Sprintf("model source: %v", mErr))
		} else {
			candidates = append(candidates, extra...)
		}
	}

	report.Discovered = len(candidates)
	for _, c := range candidates {
		metrics.CandidatesDiscovered.WithLabelValues(c.Topic).Inc()
	}

	fresh, err := p.filterKnown(ctx, candidates)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("dedupe_failed").Inc()
		return report, fmt.Errorf("load known urls: %w", err)
	}
	report.Fresh = len(fresh)

	for _, candidate := range fresh {
		if ctx.Err() != nil {
			report.FinishedAt = time.Now()
			metrics.PipelineRuns.WithLabelValues("cancelled").Inc()
			return report, ctx.Err()
		}

		doc, stored := p.processCandidate(ctx, candidate, &report)
		if stored {
			report.Stored = append(report.Stored, doc)
		}
	}

	report.FinishedAt = time.Now()
	metrics.PipelineRuns.WithLabelValues("ok").Inc()

	if p.notifier != nil && len(report.Stored) > 0 {
		if nErr := p.notifier.PublishDigest(ctx, report); nErr != nil {
			p.warn("digest publish failed", "error", nErr)
		}
	}

	return report, nil
}

// processCandidate runs one candidate through validate → extract →
// classify → persist. Every failure short of a repository write error is
// silent by design; write errors are logged and recorded but do not stop
// the batch.
func (p *Pipeline) processCandidate(ctx context.Context, candidate domain.CandidateLink, report *domain.RunReport) (domain.Document, bool) {
	if p.validator != nil {
		validation := p.validator.Validate(ctx, candidate.URL)
		if !validation.OK {
			metrics.CandidatesValidated.WithLabelValues("invalid").Inc()
			p.debug("candidate rejected by validator", "url", candidate.URL)
			return domain.Document{}, false
		}
		metrics.CandidatesValidated.WithLabelValues("valid").Inc()
		report.Validated++
		return p.classifyAndStore(ctx, candidate, validation.Kind, report)
	}

	report.Validated++
	return p.classifyAndStore(ctx, candidate, domain.KindHTML, report)
}

func (p *Pipeline) classifyAndStore(ctx context.Context, candidate domain.CandidateLink, kind domain.ContentKind, report *domain.RunReport) (domain.Document, bool) {
	var extraction domain.Extraction
	if p.extractor != nil {
		extraction = p.extractor.Extract(ctx, candidate.URL, kind)
	}

	verdict, cached := p.cachedVerdict(candidate.URL)
	if !cached {
		if p.classifier == nil {
			p.debug("no classifier configured, skipping candidate", "url", candidate.URL)
			return domain.Document{}, false
		}
		verdict = p.classifier.Classify(ctx, extraction, candidate)
		p.storeVerdict(candidate.URL, verdict)
	}

	if !verdict.Relevant {
		metrics.ClassifierRejections.WithLabelValues(candidate.Topic).Inc()
		p.debug("candidate not relevant", "url", candidate.URL, "cached", cached)
		return domain.Document{}, false
	}

	doc := buildDocument(candidate, extraction, verdict, kind)

	if p.repository != nil {
		if err := p.repository.UpsertDocument(ctx, doc); err != nil {
			p.warn("persist failed", "url", candidate.URL, "error", err)
			report.Errors = append(report.Errors, fmt.Sprintf("persist %s: %v", candidate.URL, err))
			return domain.Document{}, false
		}
	}

	metrics.DocumentsStored.WithLabelValues(candidate.Topic).Inc()
	p.info("document stored", "url", doc.URL, "title", doc.Title, "category", doc.Category)
	return doc, true
}

// filterKnown drops candidates already in storage (one batch round trip)
// and same-run repeats discovered from different source pages.
func (p *Pipeline) filterKnown(ctx context.Context, candidates []domain.CandidateLink) ([]domain.CandidateLink, error) {
	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}

	known := map[string]bool{}
	if p.repository != nil && len(urls) > 0 {
		var err error
		known, err = p.repository.KnownURLs(ctx, urls)
		if err != nil {
			return nil, err
		}
	}

	return FilterNovel(candidates, known), nil
}

// FilterNovel returns the candidates whose URL is not in known, preserving
// input order and dropping in-batch duplicates. Pure function.
func FilterNovel(candidates []domain.CandidateLink, known map[string]bool) []domain.CandidateLink {
	fresh := make([]domain.CandidateLink, 0, len(candidates))
	seen := map[string]struct{}{}

	for _, candidate := range candidates {
		if known[candidate.URL] {
			continue
		}
		if _, dup := seen[candidate.URL]; dup {
			continue
		}
		seen[candidate.URL] = struct{}{}
		fresh = append(fresh, candidate)
	}

	return fresh
}

func buildDocument(candidate domain.CandidateLink, extraction domain.Extraction, verdict domain.Verdict, kind domain.ContentKind) domain.Document {
	title := verdict.Title
	if title == "" {
		title = extraction.Title
	}

	category := verdict.Category
	if category == "" {
		category = candidate.CategoryHint
	}

	return domain.Document{
		URL:             candidate.URL,
		Title:           title,
		PublicationDate: verdict.Date,
		Summary:         verdict.Summary,
		Category:        category,
		Jurisdiction:    candidate.Jurisdiction,
		ContentType:     kind,
		Topic:           candidate.Topic,
	}
}

func (p *Pipeline) cachedVerdict(url string) (domain.Verdict, bool) {
	if p.cache == nil {
		return domain.Verdict{}, false
	}

	raw, ok := p.cache.Get(url)
	if !ok {
		return domain.Verdict{}, false
	}

	var verdict domain.Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return domain.Verdict{}, false
	}
	return verdict, true
}

func (p *Pipeline) storeVerdict(url string, verdict domain.Verdict) {
	if p.cache == nil {
		return
	}
	if raw, err := json.Marshal(verdict); err == nil {
		p.cache.Put(url, raw)
	}
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
