package ports

import (
	"context"
	"time"

	"LegalScanner/internal/domain"
)

// LinkSource discovers candidate document links for a topic across the
// configured sites.
type LinkSource interface {
	Discover(ctx context.Context, topic string) ([]domain.CandidateLink, error)
}

// SourceSuggester asks an external model for authoritative page URLs to
// scan for a topic. An empty result is a valid answer.
type SourceSuggester interface {
	SuggestSources(ctx context.Context, topic string) ([]string, error)
}

// Validator performs the metadata-only existence/type check. The result is
// a value, not an error: every failure mode is OK=false.
type Validator interface {
	Validate(ctx context.Context, url string) domain.Validation
}

// Extractor fetches a validated URL and produces plain text, degrading to
// a filename-derived placeholder instead of failing.
type Extractor interface {
	Extract(ctx context.Context, url string, kind domain.ContentKind) domain.Extraction
}

// Classifier judges whether extracted content is relevant to the topic and
// pulls out document metadata. Unparseable or unavailable model output is
// reported as a not-relevant verdict, never as an error.
type Classifier interface {
	Classify(ctx context.Context, extraction domain.Extraction, candidate domain.CandidateLink) domain.Verdict
}

// OCREngine recognizes text in a document that has no machine-readable
// text layer (scanned gazettes). The engine owns page rendering.
type OCREngine interface {
	Recognize(ctx context.Context, raw []byte, mimeType string) (string, error)
}

// DocumentRepository persists accepted documents keyed by URL.
type DocumentRepository interface {
	UpsertDocument(ctx context.Context, doc domain.Document) error
	KnownURLs(ctx context.Context, urls []string) (map[string]bool, error)
	ListByTopic(ctx context.Context, topic string) ([]domain.Document, error)
	ListAll(ctx context.Context) ([]domain.Document, error)
	TrackClick(ctx context.Context, url string) (bool, error)
}

// Cache stores classifier verdicts between runs so a URL is not sent to
// the model twice while the entry is fresh.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
}

// Notifier publishes a digest of a finished run's newly accepted
// documents. Implementations own the message formatting.
type Notifier interface {
	PublishDigest(ctx context.Context, report domain.RunReport) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
