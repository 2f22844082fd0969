package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hatamake/kokoto-httpd/internal/common"
)

type errorBody struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Stack string `json:"stack,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes err as an error envelope. Internal errors are logged
// with their cause, which never reaches the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	e := common.AsError(err)
	if e.Kind == common.KindInternal {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", e.Err)
	}

	body := errorBody{Kind: e.Kind.String(), ID: e.MessageID}
	if s.debug {
		body.Stack = e.Stack()
	}
	respondJSON(w, e.Status(), map[string]any{"error": body})
}

func (s *Server) handleNoRoute(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, common.Validation(common.MsgRequestInvalid))
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.Validation(common.MsgRequestInvalid)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Validation(common.MsgRequestInvalid)
	}
	return id, nil
}

// cursor parses the "after" query parameter; absent means the first page.
func cursor(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("after")
	if raw == "" {
		return 0, nil
	}
	c, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || c < 0 {
		return 0, common.Validation(common.MsgRequestInvalid)
	}
	return c, nil
}
