package httpapi

import (
	"net/http"
)

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	key, url, err := s.svc.Files.UploadURL(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"storageKey": key, "url": url})
}

// handleDownload redirects to a presigned URL of the file body.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	url, err := s.svc.Files.DownloadURL(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
