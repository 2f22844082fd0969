// Package httpapi exposes the kokoto services as a JSON REST API routed with
// gorilla/mux. Every response is an envelope object; failures carry
// {"error": {"kind", "id"}} with the status of the error kind.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/services"
)

// Services are the business services the API dispatches to.
type Services struct {
	Users            *services.UserService
	Documents        *services.RevisionService
	Files            *services.FileService
	Tags             *services.TagService
	DocumentComments *services.CommentService
	FileComments     *services.CommentService
}

type Server struct {
	address string
	svc     Services
	site    map[string]string
	debug   bool
	logger  logging.Logger
	router  *mux.Router
}

// NewServer builds the router. In debug mode error responses include the
// stack captured where the error was created.
func NewServer(address string, l logging.Logger, svc Services, site map[string]string, debug bool) *Server {
	s := &Server{
		address: address,
		svc:     svc,
		site:    site,
		debug:   debug,
		logger:  l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests, s.authenticate)

	r.HandleFunc("/users", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/users/search", s.handleSearchUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", s.handleUpdateUser).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", s.handleRemoveUser).Methods(http.MethodDelete)

	r.HandleFunc("/session", s.handleSignin).Methods(http.MethodPut)
	r.HandleFunc("/session", s.handleSignout).Methods(http.MethodDelete)
	r.HandleFunc("/session/refresh", s.handleRefresh).Methods(http.MethodPost)

	// static paths go first so they are not captured by {id}
	r.HandleFunc("/files/upload-url", s.handleUploadURL).Methods(http.MethodPost)
	r.HandleFunc("/files/{id:[0-9]+}/download", s.handleDownload).Methods(http.MethodGet)

	docs := &revisionRoutes{
		server: s, single: "document", plural: "documents",
		revisions: s.svc.Documents, comments: s.svc.DocumentComments, signinToRead: true,
	}
	files := &revisionRoutes{
		server: s, single: "file", plural: "files",
		revisions: s.svc.Files.RevisionService, comments: s.svc.FileComments,
	}
	docs.register(r)
	files.register(r)

	r.HandleFunc("/tags", s.handleLookupTag).Methods(http.MethodGet).Queries("title", "{title}")
	r.HandleFunc("/tags/search", s.handleSearchTags).Methods(http.MethodGet)
	r.HandleFunc("/tags/{id:[0-9]+}", s.handleGetTag).Methods(http.MethodGet)
	r.HandleFunc("/tags/{id:[0-9]+}", s.handleUpdateTag).Methods(http.MethodPut)
	r.HandleFunc("/tags/{id:[0-9]+}/color", s.handlePaintTag).Methods(http.MethodPut)
	r.HandleFunc("/tags/{id:[0-9]+}", s.handleRemoveTag).Methods(http.MethodDelete)

	r.HandleFunc("/site/{key}", s.handleSite).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(s.handleNoRoute)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
