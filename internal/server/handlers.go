package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"LegalScanner/internal/domain"
)

type documentView struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Summary     string `json:"summary"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	ClickCount  int    `json:"click_count"`
}

// groupedDocuments is the frontend shape: jurisdiction → category → docs.
type groupedDocuments map[string]map[string][]documentView

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	docs, err := s.repository.ListAll(r.Context())
	if err != nil {
		// An empty listing beats a 500; the frontend keeps working.
		s.error("list all failed", err)
		s.respondJSON(w, http.StatusOK, groupedDocuments{})
		return
	}
	s.respondJSON(w, http.StatusOK, groupDocuments(docs))
}

func (s *Server) handleListByTopic(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	docs, err := s.repository.ListByTopic(r.Context(), topic)
	if err != nil {
		s.error("list by topic failed", err, "topic", topic)
		s.respondJSON(w, http.StatusOK, groupedDocuments{})
		return
	}
	s.respondJSON(w, http.StatusOK, groupDocuments(docs))
}

type trackClickRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleTrackClick(w http.ResponseWriter, r *http.Request) {
	var req trackClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	found, err := s.repository.TrackClick(r.Context(), req.URL)
	if err != nil {
		s.error("track click failed", err, "url", req.URL)
		s.respondError(w, http.StatusInternalServerError, "could not track click")
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, "unknown document url")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.respondError(w, http.StatusNotImplemented, "pipeline not configured")
		return
	}

	var req runRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means all topics
	}

	go func(topic string) {
		report, err := s.runner.Run(s.runCtx, topic)
		if err != nil {
			s.error("background run failed", err, "topic", topic)
			return
		}
		if s.logger != nil {
			s.logger.Info("background run finished",
				"run_id", report.RunID,
				"discovered", report.Discovered,
				"stored", len(report.Stored))
		}
	}(req.Topic)

	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// groupDocuments arranges documents by jurisdiction then category for the
// static frontend.
func groupDocuments(docs []domain.Document) groupedDocuments {
	grouped := groupedDocuments{}
	for _, doc := range docs {
		jurisdiction := doc.Jurisdiction
		if jurisdiction == "" {
			jurisdiction = "Other"
		}
		category := doc.Category
		if category == "" {
			category = "Uncategorized"
		}

		if grouped[jurisdiction] == nil {
			grouped[jurisdiction] = map[string][]documentView{}
		}
		grouped[jurisdiction][category] = append(grouped[jurisdiction][category], documentView{
			Title:       doc.Title,
			Date:        doc.PublicationDate,
			Summary:     doc.Summary,
			URL:         doc.URL,
			ContentType: string(doc.ContentType),
			ClickCount:  doc.ClickCount,
		})
	}
	return grouped
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.error("encode response failed", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) error(msg string, err error, args ...interface{}) {
	if s.logger != nil {
		s.logger.Error(msg, append([]interface{}{"error", err}, args...)...)
	}
}
