package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"captureplan/api/internal/store"
)

func TestInviteMemberRequiresOwner(t *testing.T) {
	fs := &fakeStore{getMembershipFn: memberOf("org_1", "usr_1", "member")}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/org_1/members",
		strings.NewReader(`{"email":"new@example.com"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only owners can manage members") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestInviteMemberAsOwner(t *testing.T) {
	var created store.Invitation
	fs := &fakeStore{
		getMembershipFn: memberOf("org_1", "usr_1", "owner"),
		createInvitationFn: func(ctx context.Context, invitation store.Invitation) error {
			created = invitation
			return nil
		},
		getOrganizationFn: func(ctx context.Context, id string) (store.Organization, error) {
			return store.Organization{ID: id, Name: "Acme"}, nil
		},
	}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/org_1/members",
		strings.NewReader(`{"email":"New@Example.com"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if created.Email != "new@example.com" {
		t.Fatalf("invite email should be lowercased, got %q", created.Email)
	}
	if created.Role != "member" || created.Status != store.InvitationPending {
		t.Fatalf("unexpected invitation %+v", created)
	}
}

func TestInviteMemberRequiresEmail(t *testing.T) {
	fs := &fakeStore{getMembershipFn: memberOf("org_1", "usr_1", "owner")}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/org_1/members",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without email, got %d", rec.Code)
	}
}

func TestRemoveMemberRequiresOwnerHTTP(t *testing.T) {
	fs := &fakeStore{getMembershipFn: memberOf("org_1", "usr_1", "member")}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/org_1/members/remove",
		strings.NewReader(`{"memberIdOrEmail":"mem_2"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner removal, got %d", rec.Code)
	}
}

func TestRemoveMemberAsOwner(t *testing.T) {
	var deletedID string
	fs := &fakeStore{
		getMembershipFn: memberOf("org_1", "usr_1", "owner"),
		findMemberFn: func(ctx context.Context, orgID, target string) (store.Member, error) {
			if target == "gone@example.com" {
				return store.Member{ID: "mem_2", OrganizationID: orgID, UserID: "usr_2", Role: "member"}, nil
			}
			return store.Member{}, sql.ErrNoRows
		},
		deleteMemberFn: func(ctx context.Context, memberID string) error {
			deletedID = memberID
			return nil
		},
	}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/org_1/members/remove",
		strings.NewReader(`{"memberIdOrEmail":"gone@example.com"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if deletedID != "mem_2" {
		t.Fatalf("expected mem_2 deleted, got %q", deletedID)
	}
}

func TestListMembersNeedsOnlySession(t *testing.T) {
	fs := &fakeStore{
		// Caller is NOT a member of org_1; roster stays readable with a session
		listMembersFn: func(ctx context.Context, orgID string) ([]store.MemberInfo, error) {
			return []store.MemberInfo{
				{Member: store.Member{ID: "mem_1", UserID: "usr_9", Role: "owner"}, UserName: "Owner", UserEmail: "owner@example.com"},
			}, nil
		},
	}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/organizations/org_1/members", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Members []map[string]any `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode members: %v", err)
	}
	if len(payload.Members) != 1 || payload.Members[0]["role"] != "OWNER" {
		t.Fatalf("expected uppercased role, got %+v", payload.Members)
	}
}

func TestMockJoinHTTP(t *testing.T) {
	fs := &fakeStore{
		getOrganizationFn: func(ctx context.Context, id string) (store.Organization, error) {
			if id == "org_1" {
				return store.Organization{ID: id, Name: "Acme"}, nil
			}
			return store.Organization{}, sql.ErrNoRows
		},
		insertMemberFn: func(ctx context.Context, member store.Member) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/mock-join",
		strings.NewReader(`{"organizationId":"org_1"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"joined":true`) {
		t.Fatalf("expected joined payload, got %s", rec.Body.String())
	}
}

func TestMockJoinUnknownOrgHTTP(t *testing.T) {
	svc := newTestService(&fakeStore{}, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/mock-join",
		strings.NewReader(`{"organizationId":"org_missing"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestMockJoinRequiresOrganizationID(t *testing.T) {
	svc := newTestService(&fakeStore{}, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/mock-join",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMockJoinStoreFailure(t *testing.T) {
	fs := &fakeStore{
		getOrganizationFn: func(ctx context.Context, id string) (store.Organization, error) {
			return store.Organization{ID: id, Name: "Acme"}, nil
		},
		insertMemberFn: func(ctx context.Context, member store.Member) (bool, error) {
			return false, errors.New("connection reset")
		},
	}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodPost, "/api/organizations/mock-join",
		strings.NewReader(`{"organizationId":"org_1"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Mock join failed:") {
		t.Fatalf("expected structured mock join error, got %s", rec.Body.String())
	}
}

func TestMockJoinListHTTP(t *testing.T) {
	fs := &fakeStore{
		listJoinableFn: func(ctx context.Context, userID string) ([]store.Organization, error) {
			return []store.Organization{{ID: "org_2", Name: "Joinable"}}, nil
		},
	}
	svc := newTestService(fs, newFakeSessions())
	server := NewHTTPServer(svc, "*")

	req := authedRequest(t, svc, http.MethodGet, "/api/organizations/mock-join", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"mockInvitationId":"mock-org_2"`) {
		t.Fatalf("expected mock invitation id, got %s", rec.Body.String())
	}
}

func TestSetActiveOrganizationHTTP(t *testing.T) {
	fs := &fakeStore{getMembershipFn: memberOf("org_1", "usr_1", "member")}
	sessions := newFakeSessions()
	svc := newTestService(fs, sessions)
	server := NewHTTPServer(svc, "*")

	session, err := svc.CreateSession(context.Background(), testUser())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/organizations/org_1/set-active", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	record, err := sessions.LookupSession(context.Background(), session.SID)
	if err != nil {
		t.Fatalf("LookupSession: %v", err)
	}
	if record.ActiveOrganizationID != "org_1" {
		t.Fatalf("active org not persisted, record %+v", record)
	}

	// Membership required
	req = httptest.NewRequest(http.MethodPost, "/api/organizations/org_other/set-active", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-membership, got %d", rec.Code)
	}
}
