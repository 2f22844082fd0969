package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hatamake/kokoto-httpd/internal/common"
)

// handleSite returns one public setting, e.g. "pagination".
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	value, ok := s.site[mux.Vars(r)["key"]]
	if !ok {
		s.respondError(w, r, common.Validation(common.MsgRequestInvalid))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"result": value})
}
