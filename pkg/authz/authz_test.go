package authz

import (
	"testing"

	"ledgerdesk/pkg/models"
)

func TestDefaultDestination(t *testing.T) {
	if got := DefaultDestination(models.RoleClient); got != DestClientPortal {
		t.Fatalf("client default = %s, want %s", got, DestClientPortal)
	}
	for _, r := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleStaff} {
		if got := DefaultDestination(r); got != DestDashboard {
			t.Fatalf("%s default = %s, want %s", r, got, DestDashboard)
		}
	}
}

func TestAuthorizeNoSession(t *testing.T) {
	d := Authorize(nil, nil, DestDashboard, nil)
	if d.Allowed {
		t.Fatalf("expected denial without session")
	}
	if d.RedirectTo != DestLogin {
		t.Fatalf("redirect = %s, want %s", d.RedirectTo, DestLogin)
	}
	// an identity without a session still cannot pass
	ident := &models.Profile{ID: "u1", Role: models.RoleAdmin}
	if d := Authorize(nil, ident, DestDashboard, nil); d.Allowed {
		t.Fatalf("expected denial when session is nil even with identity")
	}
}

func TestAuthorizeRoleGate(t *testing.T) {
	sess := &models.Session{Token: "t", UserID: "u1"}
	staff := &models.Profile{ID: "u1", Role: models.RoleStaff}
	client := &models.Profile{ID: "u2", Role: models.RoleClient}
	admins := []models.Role{models.RoleAdmin}

	if d := Authorize(sess, staff, DestUsers, admins); d.Allowed {
		t.Fatalf("staff must not reach an admin-only destination")
	} else if d.RedirectTo != DestDashboard {
		t.Fatalf("staff redirect = %s, want %s", d.RedirectTo, DestDashboard)
	}

	if d := Authorize(sess, client, DestUsers, admins); d.Allowed {
		t.Fatalf("client must not reach an admin-only destination")
	} else if d.RedirectTo != DestClientPortal {
		t.Fatalf("client redirect = %s, want %s", d.RedirectTo, DestClientPortal)
	}

	admin := &models.Profile{ID: "u3", Role: models.RoleAdmin}
	if d := Authorize(sess, admin, DestUsers, admins); !d.Allowed {
		t.Fatalf("admin denied: redirect %s", d.RedirectTo)
	}
}

func TestAuthorizeUngated(t *testing.T) {
	sess := &models.Session{Token: "t", UserID: "u1"}
	if d := Authorize(sess, nil, DestDashboard, nil); !d.Allowed {
		t.Fatalf("ungated destination denied with session present")
	}
}

func TestAuthorizeMissingIdentity(t *testing.T) {
	sess := &models.Session{Token: "t", UserID: "u1"}
	d := Authorize(sess, nil, DestUsers, []models.Role{models.RoleAdmin})
	if d.Allowed {
		t.Fatalf("absent identity must not satisfy a role gate")
	}
	if d.RedirectTo != DestDashboard {
		t.Fatalf("redirect = %s, want %s", d.RedirectTo, DestDashboard)
	}
}
