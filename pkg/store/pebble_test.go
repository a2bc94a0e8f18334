package store

import (
	"testing"

	"ledgerdesk/pkg/models"
)

func openTemp(t *testing.T) {
	t.Helper()
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestProfileRoundTrip(t *testing.T) {
	openTemp(t)
	p := models.Profile{ID: "u1", Email: "a@example.com", FullName: "A", Role: models.RoleStaff}
	if err := SaveProfile(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := GetProfile("u1")
	if err != nil || got.Email != p.Email {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	all, err := ListProfiles()
	if err != nil || len(all) != 1 {
		t.Fatalf("list: %d err=%v", len(all), err)
	}
	if _, err := GetProfile("missing"); err == nil {
		t.Fatalf("missing profile did not error")
	}
}

func TestSessionLifecycle(t *testing.T) {
	openTemp(t)
	s := models.Session{Token: "tok", UserID: "u1"}
	if err := SaveSession(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := GetSession("tok"); err != nil || got.UserID != "u1" {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if err := DeleteSession("tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetSession("tok"); err == nil {
		t.Fatalf("deleted session still readable")
	}
	// deleting an absent token is not an error
	if err := DeleteSession("tok"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestRecordsScanByCollection(t *testing.T) {
	openTemp(t)
	if err := SaveRecord("clients", "c1", []byte(`{"id":"c1"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveRecord("tasks", "t1", []byte(`{"id":"t1"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	clients, err := ListRecords("clients")
	if err != nil || len(clients) != 1 {
		t.Fatalf("clients scan: %d err=%v", len(clients), err)
	}
	tasks, err := ListRecords("tasks")
	if err != nil || len(tasks) != 1 {
		t.Fatalf("tasks scan: %d err=%v", len(tasks), err)
	}
}

func TestConversationSnapshots(t *testing.T) {
	openTemp(t)
	c := models.Conversation{
		ID: "conv1", ClientID: "cl1", Status: models.ConversationAssigned,
		AssigneeID: "s1",
		Messages:   []models.Message{{ID: 1, From: models.MessageFromClient, Text: "hi"}},
	}
	if err := SaveConversation(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	// second write for the same client overwrites, not appends
	c.Messages = append(c.Messages, models.Message{ID: 2, From: models.MessageFromStaff, Text: "hello"})
	if err := SaveConversation(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	all, err := ListConversations()
	if err != nil || len(all) != 1 {
		t.Fatalf("list: %d err=%v", len(all), err)
	}
	if len(all[0].Messages) != 2 {
		t.Fatalf("snapshot messages = %d, want 2", len(all[0].Messages))
	}
}

func TestNotReady(t *testing.T) {
	if Ready() {
		t.Skip("store already open in this process")
	}
	if err := SaveProfile(models.Profile{ID: "x"}); err == nil {
		t.Fatalf("write on closed store did not error")
	}
}
