package domain

import "time"

// ContentKind is the coarse document kind derived from response headers.
type ContentKind string

const (
	KindPDF  ContentKind = "pdf"
	KindHTML ContentKind = "html"
	KindText ContentKind = "text"
)

// Recommended category set. The store accepts any non-empty string the
// classifier returns; these are the values the prompt asks for.
const (
	CategoryLegislation  = "Legislation"
	CategoryRegulation   = "Regulation"
	CategoryCaseLaw      = "Case Law"
	CategoryNotice       = "Official Notice"
	CategoryPolicyReport = "Policy/Report"
	CategoryBill         = "Bill"
)

// Document is an accepted legal document, keyed by URL in storage.
type Document struct {
	URL             string
	Title           string
	PublicationDate string
	Summary         string
	Category        string
	Jurisdiction    string
	ContentType     ContentKind
	Topic           string
	ClickCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CandidateLink is a URL discovered during a run, not yet validated or
// classified. It lives only inside a single pipeline run.
type CandidateLink struct {
	URL          string
	SourcePage   string
	Topic        string
	Jurisdiction string
	CategoryHint string
}

// Validation is the outcome of the lightweight existence/type check.
// All network failure modes collapse to OK=false; there is no error channel.
type Validation struct {
	OK   bool
	Kind ContentKind
}

// Extraction carries the text pulled out of a fetched document. Degraded
// marks the fallback case where the fetch or decode failed and Title is
// just the last URL path segment. Raw holds the original bytes so the
// classifier can still inspect the document itself.
type Extraction struct {
	Title    string
	Text     string
	Raw      []byte
	Kind     ContentKind
	Degraded bool
}

// Verdict is the parsed classifier output. Anything the model returns that
// is not a well-formed positive answer is represented as Relevant=false.
type Verdict struct {
	Relevant bool
	Title    string
	Date     string
	Summary  string
	Category string
}

// RunReport summarizes one pipeline execution.
type RunReport struct {
	RunID      string
	Topic      string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Fresh      int
	Validated  int
	Stored     []Document
	Errors     []string
}
