package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"LegalScanner/internal/domain"
)

type fakeOCR struct {
	text string
	err  error
	seen []byte
}

func (f *fakeOCR) Recognize(ctx context.Context, raw []byte, mimeType string) (string, error) {
	f.seen = raw
	return f.text, f.err
}

func TestExtractHTML(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Companies Act 2013</title>
	<script>var tracking = true;</script>
	<style>body { color: red; }</style></head>
	<body><h1>Companies   Act</h1>
	<p>An Act to consolidate
	and amend the law.</p></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), nil, nil)
	extraction := e.Extract(context.Background(), server.URL, domain.KindHTML)

	if extraction.Degraded {
		t.Fatal("extraction should not be degraded")
	}
	if extraction.Title != "Companies Act 2013" {
		t.Fatalf("unexpected title: %q", extraction.Title)
	}
	if strings.Contains(extraction.Text, "tracking") || strings.Contains(extraction.Text, "color: red") {
		t.Fatalf("script/style leaked into text: %q", extraction.Text)
	}
	if !strings.Contains(extraction.Text, "An Act to consolidate and amend the law.") {
		t.Fatalf("whitespace not normalized: %q", extraction.Text)
	}
}

func TestExtractFetchFailureDegrades(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), nil, nil)
	extraction := e.Extract(context.Background(), server.URL+"/gazette/notification-2021.pdf", domain.KindPDF)

	if !extraction.Degraded {
		t.Fatal("expected degraded extraction")
	}
	if extraction.Title != "notification-2021.pdf" {
		t.Fatalf("expected filename-derived title, got %q", extraction.Title)
	}
	if extraction.Text != "" {
		t.Fatalf("expected empty text, got %q", extraction.Text)
	}
}

func TestExtractPDFWithoutTextLayerUsesOCR(t *testing.T) {
	t.Parallel()

	// Not a parsable PDF: the text layer read fails, which is exactly the
	// scanned-document case the OCR fallback exists for.
	scanned := []byte("%PDF-1.4 pretend this is a scan")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(scanned)
	}))
	defer server.Close()

	ocr := &fakeOCR{text: "GAZETTE OF INDIA\nInsolvency Rules, 2017"}
	e := NewExtractor(server.Client(), ocr, nil)
	extraction := e.Extract(context.Background(), server.URL+"/scan.pdf", domain.KindPDF)

	if ocr.seen == nil {
		t.Fatal("OCR engine was not invoked")
	}
	if extraction.Degraded {
		t.Fatal("OCR text should prevent degradation")
	}
	if extraction.Title != "GAZETTE OF INDIA" {
		t.Fatalf("unexpected title: %q", extraction.Title)
	}
	if !strings.Contains(extraction.Text, "Insolvency Rules, 2017") {
		t.Fatalf("unexpected text: %q", extraction.Text)
	}
}

func TestExtractPDFWithFailingOCRDegrades(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 no text here"))
	}))
	defer server.Close()

	ocr := &fakeOCR{err: fmt.Errorf("ocr service unavailable")}
	e := NewExtractor(server.Client(), ocr, nil)
	extraction := e.Extract(context.Background(), server.URL+"/orders/order-17.pdf", domain.KindPDF)

	if !extraction.Degraded {
		t.Fatal("expected degraded extraction when OCR fails too")
	}
	if extraction.Title != "order-17.pdf" {
		t.Fatalf("expected filename fallback, got %q", extraction.Title)
	}
	if len(extraction.Raw) == 0 {
		t.Fatal("raw bytes must be kept for the classifier")
	}
}

func TestDegradedTitleFallsBackToURL(t *testing.T) {
	t.Parallel()

	extraction := degraded("https://gov.example/", domain.KindHTML)
	if extraction.Title != "https://gov.example/" {
		t.Fatalf("unexpected title: %q", extraction.Title)
	}
}
