package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Barac9492/contrarian-brief/pkg/digest"
	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.config.Version,
		"posts":   s.store.Len(),
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// listPostsHandler returns the collection, newest first
func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts := s.store.List()
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{
		"posts": posts,
		"count": len(posts),
	})
}

// addPostHandler adds a manually entered post. A failed durability write is
// reported alongside the accepted post, not as a rejection.
func (s *Server) addPostHandler(w http.ResponseWriter, r *http.Request) {
	var post domain.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	added, err := s.store.Add(r.Context(), post)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			RenderError(w, r, err, http.StatusBadRequest)
			return
		}
		var pErr *domain.PersistenceError
		if errors.As(err, &pErr) {
			RenderJSON(w, r, http.StatusCreated, map[string]interface{}{
				"post":    added,
				"warning": err.Error(),
			})
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusCreated, map[string]interface{}{"post": added})
}

// updatePostHandler merges a partial update into the matching post
func (s *Server) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch domain.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.store.Update(r.Context(), id, patch); err != nil {
		var nfErr *domain.NotFoundError
		if errors.As(err, &nfErr) {
			RenderError(w, r, err, http.StatusNotFound)
			return
		}
		var pErr *domain.PersistenceError
		if errors.As(err, &pErr) {
			RenderJSON(w, r, http.StatusOK, map[string]string{"updated": id, "warning": err.Error()})
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, map[string]string{"updated": id})
}

// deletePostHandler removes a post, idempotent on unknown ids
func (s *Server) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		var pErr *domain.PersistenceError
		if errors.As(err, &pErr) {
			RenderJSON(w, r, http.StatusOK, map[string]string{"deleted": id, "warning": err.Error()})
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, map[string]string{"deleted": id})
}

// classifyHandler runs a classification pass for the manual-entry form
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	if req.Title == "" && req.Content == "" {
		RenderError(w, r, errors.New("missing title or content"), http.StatusBadRequest)
		return
	}

	result := s.classifier.Classify(r.Context(), req.Title, req.Content)
	RenderJSON(w, r, http.StatusOK, result)
}

// statsHandler returns the derived collection views
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	posts := s.store.List()
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{
		"postCount": len(posts),
		"themes":    digest.ThemeStats(posts),
		"dateRange": digest.DateRange(posts),
	})
}

// generateReportHandler synthesizes a new report draft over the current
// collection and caches it as the last draft
func (s *Server) generateReportHandler(w http.ResponseWriter, r *http.Request) {
	posts := s.store.List()
	dateRange := digest.DateRange(posts)

	text, err := s.synthesizer.Synthesize(r.Context(), posts, dateRange)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			RenderError(w, r, err, http.StatusBadRequest)
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	draft := domain.ReportDraft{
		Content:     text,
		GeneratedAt: time.Now(),
		PostCount:   len(posts),
		DateRange:   dateRange,
	}

	if err := s.store.SaveReport(r.Context(), draft); err != nil {
		log.Printf("[WARN] failed to cache report draft: %v", err)
	}

	RenderJSON(w, r, http.StatusOK, draft)
}

// lastReportHandler returns the last cached report draft
func (s *Server) lastReportHandler(w http.ResponseWriter, r *http.Request) {
	draft, ok, err := s.store.LastReport(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	if !ok {
		RenderError(w, r, errors.New("no report generated yet"), http.StatusNotFound)
		return
	}
	RenderJSON(w, r, http.StatusOK, draft)
}

// ingestHandler triggers a manual ingestion run
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	added, err := s.ingestor.Run(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusBadGateway)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{"added": added})
}

// cronHandler is the externally invoked ingestion trigger. When a cron
// secret is configured, requests lacking the matching bearer value are
// rejected in production mode and accepted with a warning otherwise.
func (s *Server) cronHandler(w http.ResponseWriter, r *http.Request) {
	if s.config.CronSecret != "" && r.Header.Get("Authorization") != "Bearer "+s.config.CronSecret {
		if s.config.Production {
			RenderError(w, r, errors.New("unauthorized"), http.StatusUnauthorized)
			return
		}
		log.Printf("[WARN] cron auth missing or invalid, proceeding since not in production")
	}

	added, err := s.ingestor.Run(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"added":   added,
	})
}
