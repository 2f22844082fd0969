package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/common"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// authenticate resolves a bearer token to the caller's user id. Requests
// without a token pass through anonymously; handlers decide whether that is
// enough.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			s.respondError(w, r, common.AuthRequired(common.MsgSigninRequired))
			return
		}

		userID, err := s.svc.Users.Authenticate(token)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// requireUser returns the authenticated caller or AuthRequired.
func requireUser(r *http.Request) (string, error) {
	userID, ok := r.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", common.AuthRequired(common.MsgSigninRequired)
	}
	return userID, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
