package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/services"
)

// revisionRoutes serves one revision kind under /<plural>. Documents and
// files share every route except the file blob endpoints.
type revisionRoutes struct {
	server    *Server
	single    string
	plural    string
	revisions *services.RevisionService
	comments  *services.CommentService

	// signinToRead also guards the read routes.
	signinToRead bool
}

type revisionRequest struct {
	Title      string            `json:"title"`
	Filename   string            `json:"filename"`
	Content    string            `json:"content"`
	StorageKey string            `json:"storageKey"`
	Tags       []models.TagInput `json:"tags"`
}

func (q revisionRequest) input(authorID string) models.RevisionInput {
	title := q.Title
	if title == "" {
		title = q.Filename
	}
	return models.RevisionInput{
		Title:      title,
		Content:    q.Content,
		StorageKey: q.StorageKey,
		AuthorID:   authorID,
		Tags:       q.Tags,
	}
}

type commentRequest struct {
	Content string       `json:"content"`
	Range   models.Range `json:"range"`
}

func (rr *revisionRoutes) register(r *mux.Router) {
	base := "/" + rr.plural
	r.HandleFunc(base, rr.handleCreate).Methods(http.MethodPost)
	r.HandleFunc(base+"/search", rr.handleSearch).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id:[0-9]+}", rr.handleGet).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id:[0-9]+}", rr.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc(base+"/{id:[0-9]+}", rr.handleArchive).Methods(http.MethodDelete)
	r.HandleFunc(base+"/{id:[0-9]+}/history", rr.handleHistory).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id:[0-9]+}/diff", rr.handleDiff).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id:[0-9]+}/comments", rr.handleAddComment).Methods(http.MethodPost)
	r.HandleFunc(base+"/{id:[0-9]+}/comments/{commentId:[0-9]+}", rr.handleUpdateComment).Methods(http.MethodPut)
	r.HandleFunc(base+"/{id:[0-9]+}/comments/{commentId:[0-9]+}", rr.handleRemoveComment).Methods(http.MethodDelete)
}

func (rr *revisionRoutes) canRead(r *http.Request) error {
	if !rr.signinToRead {
		return nil
	}
	_, err := requireUser(r)
	return err
}

func (rr *revisionRoutes) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	var req revisionRequest
	if err := decode(r, &req); err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	rev, err := rr.revisions.Create(r.Context(), req.input(userID))
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{rr.single: rev})
}

func (rr *revisionRoutes) handleGet(w http.ResponseWriter, r *http.Request) {
	if err := rr.canRead(r); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	rev, err := rr.revisions.Get(r.Context(), id)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{rr.single: rev})
}

func (rr *revisionRoutes) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	var req revisionRequest
	if err := decode(r, &req); err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	rev, err := rr.revisions.Update(r.Context(), id, req.input(userID))
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{rr.single: rev})
}

func (rr *revisionRoutes) handleArchive(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	if err := rr.revisions.Archive(r.Context(), id); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{})
}

// handleSearch serves ?type=date|history|tag|text&query=...&after=<id>.
func (rr *revisionRoutes) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := rr.canRead(r); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	after, err := cursor(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	page, err := rr.revisions.Search(r.Context(), services.SearchQuery{
		Mode:   services.SearchMode(q.Get("type")),
		Query:  q.Get("query"),
		Cursor: after,
	})
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{rr.plural: page})
}

func (rr *revisionRoutes) handleHistory(w http.ResponseWriter, r *http.Request) {
	if err := rr.canRead(r); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	after, err := cursor(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	page, err := rr.revisions.History(r.Context(), id, after)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{rr.plural: page})
}

// handleDiff compares {id} with ?to=<id>, or with its predecessor.
func (rr *revisionRoutes) handleDiff(w http.ResponseWriter, r *http.Request) {
	if err := rr.canRead(r); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	var to int64
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = strconv.ParseInt(raw, 10, 64); err != nil || to <= 0 {
			rr.server.respondError(w, r, common.Validation(common.MsgRequestInvalid))
			return
		}
	}

	blocks, err := rr.revisions.Diff(r.Context(), id, to)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"diff": blocks})
}

func (rr *revisionRoutes) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	var req commentRequest
	if err := decode(r, &req); err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	c, err := rr.comments.Add(r.Context(), id, userID, req.Content, req.Range)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"comment": c})
}

func (rr *revisionRoutes) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	var req commentRequest
	if err := decode(r, &req); err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	c, err := rr.comments.Update(r.Context(), commentID, userID, req.Content, req.Range)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"comment": c})
}

func (rr *revisionRoutes) handleRemoveComment(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		rr.server.respondError(w, r, err)
		return
	}

	if err := rr.comments.Remove(r.Context(), commentID, userID); err != nil {
		rr.server.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{})
}
