package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/inbox"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	svc := auth.NewService(time.Hour, 100, 100)
	reg := inbox.New(nil, inbox.PersisterFunc(store.SaveConversation))
	return Handler(Deps{
		Auth:        svc,
		Inbox:       reg,
		Version:     "test",
		CORSOrigins: []string{"https://console.example"},
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
}

// signUpAndIn creates an account and returns its session token.
func signUpAndIn(t *testing.T, h http.Handler, email, name, role string) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"email": email, "password": "longenough", "full_name": name, "role": role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("sign-up %s: status %d body %s", email, w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodPost, "/v1/auth/signin", "", map[string]string{
		"email": email, "password": "longenough",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in %s: status %d body %s", email, w.Code, w.Body.String())
	}
	var out struct {
		Session models.Session `json:"session"`
	}
	decode(t, w, &out)
	if out.Session.Token == "" {
		t.Fatalf("sign-in returned no token")
	}
	return out.Session.Token
}

func TestHealthAndReady(t *testing.T) {
	h := newTestHandler(t)
	if w := doJSON(t, h, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz status %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("readyz status %d", w.Code)
	}
}

func TestSessionEndpoint(t *testing.T) {
	h := newTestHandler(t)

	// unauthenticated: 200 with null session, not an error
	w := doJSON(t, h, http.MethodGet, "/v1/auth/session", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous session check status %d", w.Code)
	}
	var out struct {
		Session *models.Session `json:"session"`
		User    *models.Profile `json:"user"`
	}
	decode(t, w, &out)
	if out.Session != nil || out.User != nil {
		t.Fatalf("anonymous session not null: %+v", out)
	}

	token := signUpAndIn(t, h, "staff@firm.example", "Sam Staff", "staff")
	w = doJSON(t, h, http.MethodGet, "/v1/auth/session", token, nil)
	decode(t, w, &out)
	if out.Session == nil || out.User == nil || out.User.Role != models.RoleStaff {
		t.Fatalf("authenticated session incomplete: %+v", out)
	}
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	h := newTestHandler(t)
	w := doJSON(t, h, http.MethodGet, "/v1/conversations", "", nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("anonymous staff route: status %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect location %s, want /login", loc)
	}
}

func TestGuardRedirectsClientFromStaffRoutes(t *testing.T) {
	h := newTestHandler(t)
	token := signUpAndIn(t, h, "client@co.example", "Cleo Client", "client")
	w := doJSON(t, h, http.MethodGet, "/v1/records/clients", token, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("client on staff route: status %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/client-portal" {
		t.Fatalf("redirect location %s, want /client-portal", loc)
	}
}

func TestConversationClaimFlow(t *testing.T) {
	h := newTestHandler(t)
	clientTok := signUpAndIn(t, h, "client@co.example", "Cleo Client", "client")
	staff1 := signUpAndIn(t, h, "one@firm.example", "Staff One", "staff")
	staff2 := signUpAndIn(t, h, "two@firm.example", "Staff Two", "staff")

	// client writes in; conversation is created on demand
	w := doJSON(t, h, http.MethodPost, "/v1/conversations/me/messages", clientTok, map[string]string{"text": "need help with VAT"})
	if w.Code != http.StatusCreated {
		t.Fatalf("client message status %d body %s", w.Code, w.Body.String())
	}
	var conv models.Conversation
	decode(t, w, &conv)
	if conv.Status != models.ConversationUnassigned || len(conv.Messages) != 1 {
		t.Fatalf("unexpected conversation after first message: %+v", conv)
	}

	// it shows up in the shared pool
	var pool struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	w = doJSON(t, h, http.MethodGet, "/v1/conversations/unassigned", staff1, nil)
	decode(t, w, &pool)
	if len(pool.Conversations) != 1 {
		t.Fatalf("unassigned pool size %d, want 1", len(pool.Conversations))
	}

	// first reply claims; a system notice precedes it
	w = doJSON(t, h, http.MethodPost, "/v1/conversations/"+conv.ID+"/reply", staff1, map[string]string{"text": "on it"})
	if w.Code != http.StatusOK {
		t.Fatalf("reply status %d body %s", w.Code, w.Body.String())
	}
	decode(t, w, &conv)
	if !conv.Assigned() || conv.AssigneeName != "Staff One" {
		t.Fatalf("reply did not claim: %+v", conv)
	}
	if len(conv.Messages) != 3 {
		t.Fatalf("message count %d, want 3 (client, notice, reply)", len(conv.Messages))
	}
	if !strings.Contains(conv.Messages[1].Text, "Staff One") {
		t.Fatalf("claim notice missing: %+v", conv.Messages[1])
	}
	for i, m := range conv.Messages {
		if m.ID != i+1 {
			t.Fatalf("message id sequence broken at %d: %+v", i, m)
		}
	}

	// second staff member is locked out
	w = doJSON(t, h, http.MethodPost, "/v1/conversations/"+conv.ID+"/reply", staff2, map[string]string{"text": "me too"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second staff reply status %d, want 409", w.Code)
	}
	w = doJSON(t, h, http.MethodPost, "/v1/conversations/"+conv.ID+"/claim", staff2, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second staff claim status %d, want 409", w.Code)
	}

	// claiming your own conversation again is fine
	w = doJSON(t, h, http.MethodPost, "/v1/conversations/"+conv.ID+"/claim", staff1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("re-claim by assignee status %d", w.Code)
	}

	// pool is drained
	w = doJSON(t, h, http.MethodGet, "/v1/conversations/unassigned", staff1, nil)
	pool.Conversations = nil
	decode(t, w, &pool)
	if len(pool.Conversations) != 0 {
		t.Fatalf("claimed conversation still in pool")
	}

	// sending twice never duplicates the conversation
	w = doJSON(t, h, http.MethodPost, "/v1/conversations/me/messages", clientTok, map[string]string{"text": "any update?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("second client message status %d", w.Code)
	}
	var again models.Conversation
	decode(t, w, &again)
	if again.ID != conv.ID {
		t.Fatalf("client message created a second conversation")
	}
}

func TestAddressedClientMessageOwnershipEnforced(t *testing.T) {
	h := newTestHandler(t)
	clientTok := signUpAndIn(t, h, "client@co.example", "Cleo Client", "client")

	var me struct {
		User models.Profile `json:"user"`
	}
	w := doJSON(t, h, http.MethodGet, "/v1/auth/session", clientTok, nil)
	decode(t, w, &me)

	w = doJSON(t, h, http.MethodPost, "/v1/conversations/client/"+me.User.ID+"/messages", clientTok, map[string]string{"text": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("own addressed message status %d body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodPost, "/v1/conversations/client/someone-else/messages", clientTok, map[string]string{"text": "hello"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign addressed message status %d, want 403", w.Code)
	}
}

func TestClaimUnknownConversation(t *testing.T) {
	h := newTestHandler(t)
	staff := signUpAndIn(t, h, "one@firm.example", "Staff One", "staff")
	w := doJSON(t, h, http.MethodPost, "/v1/conversations/nope/claim", staff, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown claim status %d, want 404", w.Code)
	}
}

func TestRecordsCRUD(t *testing.T) {
	h := newTestHandler(t)
	staff := signUpAndIn(t, h, "one@firm.example", "Staff One", "staff")

	w := doJSON(t, h, http.MethodPost, "/v1/records/clients", staff, map[string]interface{}{
		"name": "Acme Ltd", "status": "active",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status %d body %s", w.Code, w.Body.String())
	}
	var rec map[string]interface{}
	decode(t, w, &rec)
	id, _ := rec["id"].(string)
	if id == "" {
		t.Fatalf("create assigned no id: %+v", rec)
	}

	w = doJSON(t, h, http.MethodGet, "/v1/records/clients/"+id, staff, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPut, "/v1/records/clients/"+id, staff, map[string]interface{}{
		"name": "Acme Holdings", "status": "active",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status %d body %s", w.Code, w.Body.String())
	}

	var list struct {
		Records []map[string]interface{} `json:"records"`
	}
	w = doJSON(t, h, http.MethodGet, "/v1/records/clients", staff, nil)
	decode(t, w, &list)
	if len(list.Records) != 1 || list.Records[0]["name"] != "Acme Holdings" {
		t.Fatalf("unexpected list: %+v", list.Records)
	}

	w = doJSON(t, h, http.MethodDelete, "/v1/records/clients/"+id, staff, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, "/v1/records/clients/"+id, staff, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status %d, want 404", w.Code)
	}
}

func TestRecordsUnknownCollection(t *testing.T) {
	h := newTestHandler(t)
	staff := signUpAndIn(t, h, "one@firm.example", "Staff One", "staff")
	w := doJSON(t, h, http.MethodGet, "/v1/records/invoices", staff, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown collection status %d, want 404", w.Code)
	}
}

func TestRoutesEndpoint(t *testing.T) {
	h := newTestHandler(t)

	var out struct {
		Area   string   `json:"area"`
		Routes []string `json:"routes"`
	}
	w := doJSON(t, h, http.MethodGet, "/v1/routes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous routes status %d", w.Code)
	}
	decode(t, w, &out)
	if out.Area != "public" || len(out.Routes) != 3 {
		t.Fatalf("anonymous routes: %+v", out)
	}

	client := signUpAndIn(t, h, "client@co.example", "Cleo Client", "client")
	w = doJSON(t, h, http.MethodGet, "/v1/routes", client, nil)
	decode(t, w, &out)
	if out.Area != "client" || len(out.Routes) != 1 || out.Routes[0] != "/client-portal" {
		t.Fatalf("client routes: %+v", out)
	}

	staff := signUpAndIn(t, h, "one@firm.example", "Staff One", "manager")
	w = doJSON(t, h, http.MethodGet, "/v1/routes", staff, nil)
	decode(t, w, &out)
	if out.Area != "staff" || len(out.Routes) != 8 {
		t.Fatalf("staff routes: %+v", out)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/session", nil)
	req.Header.Set("Origin", "https://console.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://console.example" {
		t.Fatalf("allow-origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("preflight missing allow-methods")
	}

	// unlisted origins get no CORS headers
	req = httptest.NewRequest(http.MethodOptions, "/v1/auth/session", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin echoed: %q", got)
	}
}

func TestCORSOnSimpleRequest(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/routes", nil)
	req.Header.Set("Origin", "https://console.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://console.example" {
		t.Fatalf("allow-origin = %q on simple request", got)
	}
}

func TestUserManagement(t *testing.T) {
	h := newTestHandler(t)
	admin := signUpAndIn(t, h, "boss@firm.example", "Ada Admin", "admin")
	staffTok := signUpAndIn(t, h, "one@firm.example", "Staff One", "staff")

	// staff cannot reach user management
	w := doJSON(t, h, http.MethodGet, "/v1/users", staffTok, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("staff on /users: status %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("staff redirect %s, want /dashboard", loc)
	}

	var list struct {
		Users []models.Profile `json:"users"`
	}
	w = doJSON(t, h, http.MethodGet, "/v1/users", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list status %d", w.Code)
	}
	decode(t, w, &list)
	if len(list.Users) != 2 {
		t.Fatalf("user count %d, want 2", len(list.Users))
	}

	w = doJSON(t, h, http.MethodGet, "/v1/users?role=staff", admin, nil)
	list.Users = nil
	decode(t, w, &list)
	if len(list.Users) != 1 || list.Users[0].Role != models.RoleStaff {
		t.Fatalf("role filter: %+v", list.Users)
	}
	staffID := list.Users[0].ID

	// promote staff to manager
	w = doJSON(t, h, http.MethodPut, "/v1/users/"+staffID, admin, map[string]string{"role": "manager"})
	if w.Code != http.StatusOK {
		t.Fatalf("role update status %d body %s", w.Code, w.Body.String())
	}
	var updated models.Profile
	decode(t, w, &updated)
	if updated.Role != models.RoleManager {
		t.Fatalf("role after update = %s", updated.Role)
	}

	// bad role is rejected
	w = doJSON(t, h, http.MethodPut, "/v1/users/"+staffID, admin, map[string]string{"role": "superuser"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad role status %d", w.Code)
	}

	// admins cannot delete themselves
	var me struct {
		User models.Profile `json:"user"`
	}
	w = doJSON(t, h, http.MethodGet, "/v1/auth/session", admin, nil)
	decode(t, w, &me)
	w = doJSON(t, h, http.MethodDelete, "/v1/users/"+me.User.ID, admin, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("self-delete status %d, want 409", w.Code)
	}

	// deleting the other user removes profile and credential
	w = doJSON(t, h, http.MethodDelete, "/v1/users/"+staffID, admin, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", w.Code)
	}
	w = doJSON(t, h, http.MethodPost, "/v1/auth/signin", "", map[string]string{
		"email": "one@firm.example", "password": "longenough",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user can still sign in: status %d", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, "/v1/users", admin, nil)
	list.Users = nil
	decode(t, w, &list)
	if len(list.Users) != 1 {
		t.Fatalf("user count after delete %d, want 1", len(list.Users))
	}
}

func TestSignOutFlow(t *testing.T) {
	h := newTestHandler(t)
	token := signUpAndIn(t, h, "one@firm.example", "Staff One", "staff")

	if w := doJSON(t, h, http.MethodPost, "/v1/auth/signout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("sign-out status %d", w.Code)
	}
	// token is dead now; staff routes bounce to login
	w := doJSON(t, h, http.MethodGet, "/v1/conversations", token, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("post-signout status %d, want 303", w.Code)
	}
	// signing out again is still a 204
	if w := doJSON(t, h, http.MethodPost, "/v1/auth/signout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("second sign-out status %d", w.Code)
	}
}
