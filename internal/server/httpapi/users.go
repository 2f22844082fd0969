package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hatamake/kokoto-httpd/internal/common"
)

type signupRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userUpdateRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type signinRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// userParam resolves {id}, mapping "me" to the caller.
func userParam(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if id != common.MeUserID {
		return id, nil
	}
	return requireUser(r)
}

// selfParam is userParam restricted to the caller's own account.
func selfParam(r *http.Request) (string, error) {
	caller, err := requireUser(r)
	if err != nil {
		return "", err
	}
	id, err := userParam(r)
	if err != nil {
		return "", err
	}
	if id != caller {
		return "", common.AuthRequired(common.MsgSigninRequired)
	}
	return id, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.svc.Users.Register(r.Context(), req.ID, req.Name, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := userParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.svc.Users.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	page, err := s.svc.Users.Search(r.Context(), q.Get("query"), q.Get("after"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": page})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := selfParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req userUpdateRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.svc.Users.Update(r.Context(), id, req.Name, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	id, err := selfParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.Users.Remove(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	pair, err := s.svc.Users.Login(r.Context(), req.ID, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	user, err := s.svc.Users.Get(r.Context(), req.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user, "session": pair})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	pair, err := s.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session": pair})
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.Users.SignOut(r.Context(), userID); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{})
}
