package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/authz"
	"ledgerdesk/pkg/inbox"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/telemetry"
	"ledgerdesk/pkg/utils"
)

var staffRoles = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleStaff}

// RegisterConversations registers the conversation routes. Staff routes
// sit behind the dashboard gate; the client routes behind the portal
// gate.
func RegisterConversations(r *mux.Router, reg *inbox.Registry) {
	h := &conversationHandlers{reg: reg}

	r.Handle("/conversations", staffOnly(h.listInbox)).Methods(http.MethodGet)
	r.Handle("/conversations/unassigned", staffOnly(h.listUnassigned)).Methods(http.MethodGet)
	r.Handle("/conversations/client/{clientID}", staffOnly(h.getByClient)).Methods(http.MethodGet)
	r.Handle("/conversations/{id}/claim", staffOnly(h.claim)).Methods(http.MethodPost)
	r.Handle("/conversations/{id}/reply", staffOnly(h.reply)).Methods(http.MethodPost)

	clientGate := []models.Role{models.RoleClient}
	r.Handle("/conversations/me", authz.GuardFunc(authz.DestClientPortal, clientGate, h.getOwn)).Methods(http.MethodGet)
	r.Handle("/conversations/me/messages", authz.GuardFunc(authz.DestClientPortal, clientGate, h.postClientMessage)).Methods(http.MethodPost)
	r.Handle("/conversations/client/{clientID}/messages", authz.GuardFunc(authz.DestClientPortal, clientGate, h.postClientMessage)).Methods(http.MethodPost)
}

func staffOnly(fn http.HandlerFunc) http.Handler {
	return authz.GuardFunc(authz.DestDashboard, staffRoles, fn)
}

type conversationHandlers struct {
	reg *inbox.Registry
}

type messageBody struct {
	Text    string `json:"text"`
	Private bool   `json:"private"`
}

// listInbox handles GET /conversations: every conversation, most recent
// activity first.
func (h *conversationHandlers) listInbox(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"conversations": h.reg.Inbox(),
	})
}

// listUnassigned handles GET /conversations/unassigned: the shared
// claimable pool.
func (h *conversationHandlers) listUnassigned(w http.ResponseWriter, r *http.Request) {
	out := h.reg.FindUnassigned()
	if out == nil {
		out = []models.Conversation{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"conversations": out,
	})
}

// getByClient handles GET /conversations/client/{clientID}.
func (h *conversationHandlers) getByClient(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientID"]
	c, ok := h.reg.FindByClient(clientID)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, fmt.Sprintf("no conversation for client %s", clientID))
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// getOwn handles GET /conversations/me: a client's single conversation
// with the firm, created on first access.
func (h *conversationHandlers) getOwn(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	if ident == nil {
		utils.JSONError(w, http.StatusUnauthorized, "identity required")
		return
	}
	c := h.reg.FindOrCreate(ident.ID, ident.FullName, ident.Avatar)
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// postClientMessage handles POST /conversations/me/messages and its
// addressed form POST /conversations/client/{clientID}/messages. The
// conversation is created on demand; sending twice never duplicates it.
// A client can only write into their own conversation.
func (h *conversationHandlers) postClientMessage(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	if ident == nil {
		utils.JSONError(w, http.StatusUnauthorized, "identity required")
		return
	}
	if cid, ok := mux.Vars(r)["clientID"]; ok && cid != ident.ID {
		utils.JSONError(w, http.StatusForbidden, "not your conversation")
		return
	}
	var body messageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		utils.JSONError(w, http.StatusBadRequest, "message text is required")
		return
	}
	c := h.reg.FindOrCreate(ident.ID, ident.FullName, ident.Avatar)
	h.reg.AppendMessage(c.ID, models.Message{
		From:   models.MessageFromClient,
		Text:   body.Text,
		Author: ident.FullName,
	})
	telemetry.CountMessage(models.MessageFromClient)
	c, _ = h.reg.FindByID(c.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, c)
}

// claim handles POST /conversations/{id}/claim. Claiming a conversation
// already owned by the caller is a no-op success; owned by someone else
// it is a conflict.
func (h *conversationHandlers) claim(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	if ident == nil {
		utils.JSONError(w, http.StatusUnauthorized, "identity required")
		return
	}
	id := mux.Vars(r)["id"]
	c, ok := h.reg.FindByID(id)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if c.Assigned() && c.AssigneeID != ident.ID {
		utils.JSONError(w, http.StatusConflict, fmt.Sprintf("already handled by %s", c.AssigneeName))
		return
	}
	if !c.Assigned() {
		h.reg.Claim(id, ident.ID, ident.FullName)
		telemetry.CountClaim()
	}
	c, _ = h.reg.FindByID(id)
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// reply handles POST /conversations/{id}/reply. The first staff reply
// claims the conversation; after that only the assignee may reply. The
// claim is announced in the thread so the client sees who picked it up.
func (h *conversationHandlers) reply(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	if ident == nil {
		utils.JSONError(w, http.StatusUnauthorized, "identity required")
		return
	}
	var body messageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		utils.JSONError(w, http.StatusBadRequest, "message text is required")
		return
	}
	id := mux.Vars(r)["id"]
	c, ok := h.reg.FindByID(id)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if c.Assigned() && c.AssigneeID != ident.ID {
		utils.JSONError(w, http.StatusConflict, fmt.Sprintf("already handled by %s", c.AssigneeName))
		return
	}
	if !c.Assigned() {
		h.reg.Claim(id, ident.ID, ident.FullName)
		telemetry.CountClaim()
		h.reg.AppendMessage(id, models.Message{
			From:   models.MessageFromStaff,
			Text:   fmt.Sprintf("%s is now handling this conversation", ident.FullName),
			Author: "system",
		})
	}
	h.reg.AppendMessage(id, models.Message{
		From:    models.MessageFromStaff,
		Text:    body.Text,
		Author:  ident.FullName,
		Private: body.Private,
	})
	telemetry.CountMessage(models.MessageFromStaff)
	c, _ = h.reg.FindByID(id)
	_ = utils.JSONWrite(w, http.StatusOK, c)
}
