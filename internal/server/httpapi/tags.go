package httpapi

import (
	"net/http"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type paintRequest struct {
	Color string `json:"color"`
}

func (s *Server) handleLookupTag(w http.ResponseWriter, r *http.Request) {
	tag, err := s.svc.Tags.Lookup(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tag": tag})
}

func (s *Server) handleSearchTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.Tags.Search(r.Context(), q.Get("query"), q.Get("after"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tags": page})
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	tag, err := s.svc.Tags.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tag": tag})
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var patch models.TagPatch
	if err := decode(r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	tag, err := s.svc.Tags.Update(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tag": tag})
}

func (s *Server) handlePaintTag(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req paintRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	tag, err := s.svc.Tags.Paint(r.Context(), id, req.Color)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tag": tag})
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.Tags.Remove(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{})
}
