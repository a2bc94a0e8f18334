package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/authz"
	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/store"
	"ledgerdesk/pkg/utils"
)

// RegisterUsers registers the user-management routes. The whole subtree
// is admin-only.
func RegisterUsers(r *mux.Router) {
	adminGate := []models.Role{models.RoleAdmin}
	r.Handle("/users", authz.GuardFunc(authz.DestUsers, adminGate, listUsers)).Methods(http.MethodGet)
	r.Handle("/users/{id}", authz.GuardFunc(authz.DestUsers, adminGate, updateUser)).Methods(http.MethodPut)
	r.Handle("/users/{id}", authz.GuardFunc(authz.DestUsers, adminGate, deleteUser)).Methods(http.MethodDelete)
}

// listUsers handles GET /users, optionally filtered by ?role=.
func listUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := store.ListProfiles()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if roleQ := r.URL.Query().Get("role"); roleQ != "" {
		role := models.Role(strings.ToLower(roleQ))
		if !role.Valid() {
			utils.JSONError(w, http.StatusBadRequest, "unknown role: "+roleQ)
			return
		}
		filtered := profiles[:0]
		for _, p := range profiles {
			if p.Role == role {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"users": profiles})
}

// updateUser handles PUT /users/{id}: name and role are editable, the
// rest of the profile is not.
func updateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := store.GetProfile(id)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	var body struct {
		FullName *string `json:"full_name"`
		Role     *string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Role != nil {
		role := models.Role(strings.ToLower(strings.TrimSpace(*body.Role)))
		if !role.Valid() {
			utils.JSONError(w, http.StatusBadRequest, "unknown role: "+*body.Role)
			return
		}
		p.Role = role
	}
	if body.FullName != nil {
		name := strings.TrimSpace(*body.FullName)
		if name == "" {
			utils.JSONError(w, http.StatusBadRequest, "full_name must not be empty")
			return
		}
		p.FullName = name
		p.Avatar = utils.Initials(name)
	}
	if err := store.SaveProfile(p); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("user_updated", "user", p.ID, "role", p.Role)
	_ = utils.JSONWrite(w, http.StatusOK, p)
}

// deleteUser handles DELETE /users/{id}. An admin cannot delete their
// own account, so the console always keeps at least the caller.
func deleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if ident := auth.IdentityFromContext(r.Context()); ident != nil && ident.ID == id {
		utils.JSONError(w, http.StatusConflict, "cannot delete your own account")
		return
	}
	p, err := store.GetProfile(id)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := store.DeleteProfile(id); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := store.DeleteCredential(p.Email); err != nil {
		logger.Warn("credential_delete_failed", "email", p.Email, "error", err)
	}
	logger.Info("user_deleted", "user", id)
	w.WriteHeader(http.StatusNoContent)
}
