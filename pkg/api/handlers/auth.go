package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/utils"
)

// RegisterAuth registers the authentication routes.
func RegisterAuth(r *mux.Router, svc *auth.Service) {
	h := &authHandlers{svc: svc}
	r.HandleFunc("/auth/signup", h.signUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signin", h.signIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/signout", h.signOut).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/session", h.session).Methods(http.MethodGet)
}

type authHandlers struct {
	svc *auth.Service
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// signUp handles POST /auth/signup. Validation errors surface verbatim
// in the error body; they are written for the person filling the form.
func (h *authHandlers) signUp(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.svc.SignUp(r.Context(), body.Email, body.Password, auth.SignUpMeta{
		FullName: body.FullName,
		Role:     models.Role(body.Role),
	})
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, p)
}

// signIn handles POST /auth/signin and returns the issued session plus
// the resolved profile.
func (h *authHandlers) signIn(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sess, err := h.svc.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		utils.JSONError(w, status, err.Error())
		return
	}
	ident, err := h.svc.GetProfileByID(r.Context(), sess.UserID)
	if err != nil {
		// fail open: a session without a resolvable profile is still a
		// session
		ident = nil
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"session": sess,
		"user":    ident,
	})
}

// signOut handles POST /auth/signout. It answers 204 even when the
// token was already gone; sign-out is not allowed to fail visibly.
func (h *authHandlers) signOut(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess != nil {
		_ = h.svc.SignOut(r.Context(), sess.Token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// refresh handles POST /auth/refresh, extending the current session.
func (h *authHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		utils.JSONError(w, http.StatusUnauthorized, "no active session")
		return
	}
	next, err := h.svc.Refresh(r.Context(), sess.Token)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, next)
}

// session handles GET /auth/session. An unauthenticated caller gets a
// 200 with null fields, not an error: no session is a normal state.
func (h *authHandlers) session(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	ident := auth.IdentityFromContext(r.Context())
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"session": sess,
		"user":    ident,
	})
}
