package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"captureplan/api/internal/auth"
	"captureplan/api/internal/authpw"
	"captureplan/api/internal/config"
	"captureplan/api/internal/email"
	"captureplan/api/internal/export"
	"captureplan/api/internal/rbac"
	"captureplan/api/internal/search"
	"captureplan/api/internal/store"
	"captureplan/api/internal/util"
)

// Session is the resolved caller identity for a request. SID points at the
// server-side session record, which carries the active organization.
type Session struct {
	Token                string
	UserID               string
	UserName             string
	Email                string
	ActiveOrganizationID string
	SID                  string
	ExpiresAt            time.Time
}

type OutlineInput struct {
	Header      string `json:"header"`
	SectionType string `json:"sectionType"`
	Status      string `json:"status"`
	Target      *int   `json:"target"`
	Limit       *int   `json:"limit"`
	Reviewer    string `json:"reviewer"`
}

type InviteMemberInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

var allowedSectionTypes = map[string]struct{}{
	"TABLE_OF_CONTENTS":  {},
	"EXECUTIVE_SUMMARY":  {},
	"TECHNICAL_APPROACH": {},
	"DESIGN":             {},
	"CAPABILITIES":       {},
	"FOCUS_DOCUMENT":     {},
	"NARRATIVE":          {},
}

var allowedStatuses = map[string]struct{}{
	"PENDING":     {},
	"IN_PROGRESS": {},
	"COMPLETED":   {},
}

var allowedReviewers = map[string]struct{}{
	"ASSIM": {},
	"BINI":  {},
	"MAMI":  {},
}

type dataStore interface {
	Ping(ctx context.Context) error
	CreateOrganizationWithOwner(context.Context, store.Organization, store.Member) error
	GetOrganization(context.Context, string) (store.Organization, error)
	ListOrganizationsForUser(context.Context, string) ([]store.OrganizationMembership, error)
	ListJoinableOrganizations(context.Context, string) ([]store.Organization, error)
	GetMembership(ctx context.Context, organizationID, userID string) (store.Member, error)
	InsertMember(context.Context, store.Member) (bool, error)
	ListMembers(context.Context, string) ([]store.MemberInfo, error)
	FindMember(ctx context.Context, organizationID, memberIDOrEmail string) (store.Member, error)
	DeleteMember(context.Context, string) error
	CreateInvitation(context.Context, store.Invitation) error
	GetInvitation(context.Context, string) (store.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, invitationID, status string) error
	ListOutlines(context.Context, string) ([]store.Outline, error)
	InsertOutline(context.Context, store.Outline) (store.Outline, error)
	UpdateOutline(ctx context.Context, organizationID string, outlineID int64, patch store.OutlinePatch) (store.Outline, error)
	DeleteOutline(ctx context.Context, organizationID string, outlineID int64) (bool, error)
}

// SessionStore holds revocable session records. Backed by Redis when
// configured, by the Postgres sessions table otherwise.
type SessionStore interface {
	SaveSession(ctx context.Context, record store.SessionRecord) error
	LookupSession(ctx context.Context, sessionID string) (store.SessionRecord, error)
	SetActiveOrganization(ctx context.Context, sessionID, organizationID string) error
	RevokeSession(ctx context.Context, sessionID string) error
}

// searchIndex is the slice of the search facade the service uses.
type searchIndex interface {
	Search(q search.Query) search.Response
	IndexOutline(o search.OutlineRecord)
	DeleteOutline(id string)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions SessionStore
	authpw   *authpw.Service
	email    *email.Service
	search   searchIndex
	export   *export.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions SessionStore, authSvc *authpw.Service, emailSvc *email.Service, searchSvc *search.Service, exportSvc *export.Service) *Service {
	s := &Service{
		cfg:      cfg,
		sessions: sessions,
		authpw:   authSvc,
		email:    emailSvc,
		export:   exportSvc,
	}
	// Nil concrete pointers must stay nil interfaces so the
	// not-configured checks still fire.
	if dataStore != nil {
		s.store = dataStore
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// SendVerificationEmail emails the signup verification link, or logs it when
// SMTP is not configured.
func (s *Service) SendVerificationEmail(toEmail, userName, token string) {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.AppBaseURL, token)
	if !s.SMTPConfigured() {
		log.Printf("email not configured, verification url for %s: %s", toEmail, verifyURL)
		return
	}
	go func() {
		if err := s.email.SendVerificationEmail(toEmail, userName, verifyURL); err != nil {
			log.Printf("send verification email to %s: %v", toEmail, err)
		}
	}()
}

// SendPasswordResetEmail emails the reset link, or logs it when SMTP is not
// configured.
func (s *Service) SendPasswordResetEmail(toEmail, token string) {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.AppBaseURL, token)
	if !s.SMTPConfigured() {
		log.Printf("email not configured, reset url for %s: %s", toEmail, resetURL)
		return
	}
	go func() {
		if err := s.email.SendPasswordResetEmail(toEmail, "", resetURL); err != nil {
			log.Printf("send reset email to %s: %v", toEmail, err)
		}
	}()
}

// CreateSession issues a signed token backed by a server-side session record.
func (s *Service) CreateSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	sid := util.NewID("ses")

	if err := s.sessions.SaveSession(ctx, store.SessionRecord{
		ID:        sid,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.Name,
		Email: user.Email,
		SID:   sid,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Email:     user.Email,
		SID:       sid,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionFromToken parses the token and requires a live session record; a
// revoked or expired record invalidates an otherwise valid token.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}

	record, err := s.sessions.LookupSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	if record.UserID != claims.Sub {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:                token,
		UserID:               claims.Sub,
		UserName:             claims.Name,
		Email:                claims.Email,
		ActiveOrganizationID: record.ActiveOrganizationID,
		SID:                  claims.SID,
		ExpiresAt:            time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) SignOut(ctx context.Context, session Session) error {
	if session.SID == "" {
		return nil
	}
	return s.sessions.RevokeSession(ctx, session.SID)
}

// requireOrgMember is the tenant guard: every org-scoped operation calls it
// before touching data. A non-member gets 403 regardless of whether the org
// exists, so org ids cannot be probed.
func (s *Service) requireOrgMember(ctx context.Context, session Session, organizationID string) (store.Member, error) {
	if session.UserID == "" {
		return store.Member{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	if s.store == nil {
		return store.Member{}, domainError(http.StatusInternalServerError, "STORE_NOT_CONFIGURED", "store not configured", nil)
	}
	member, err := s.store.GetMembership(ctx, organizationID, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Member{}, domainError(http.StatusForbidden, "FORBIDDEN", "Not a member of this organization", nil)
		}
		return store.Member{}, fmt.Errorf("membership lookup: %w", err)
	}
	return member, nil
}

func (s *Service) requireOrgOwner(ctx context.Context, session Session, organizationID string) (store.Member, error) {
	member, err := s.requireOrgMember(ctx, session, organizationID)
	if err != nil {
		return store.Member{}, err
	}
	if !rbac.IsOwner(member.Role) {
		return store.Member{}, domainError(http.StatusForbidden, "FORBIDDEN", "Only owners can manage members", nil)
	}
	return member, nil
}

// CreateOrganization creates the org and its owner membership in one
// transaction, then makes it the caller's active organization.
func (s *Service) CreateOrganization(ctx context.Context, session Session, name string) (map[string]any, error) {
	orgName := strings.TrimSpace(name)
	if orgName == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "name is required", nil)
	}

	org := store.Organization{
		ID:   util.NewID("org"),
		Name: orgName,
	}
	owner := store.Member{
		ID:             util.NewID("mem"),
		OrganizationID: org.ID,
		UserID:         session.UserID,
		Role:           string(rbac.RoleOwner),
	}
	if err := s.store.CreateOrganizationWithOwner(ctx, org, owner); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	if err := s.sessions.SetActiveOrganization(ctx, session.SID, org.ID); err != nil {
		log.Printf("set active organization after create: %v", err)
	}

	return map[string]any{
		"id":   org.ID,
		"name": org.Name,
		"role": rbac.Display(owner.Role),
	}, nil
}

func (s *Service) ListOrganizations(ctx context.Context, session Session) ([]map[string]any, error) {
	memberships, err := s.store.ListOrganizationsForUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	items := make([]map[string]any, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, map[string]any{
			"id":        m.ID,
			"name":      m.Name,
			"role":      rbac.Display(m.Role),
			"createdAt": m.CreatedAt,
			"active":    m.ID == session.ActiveOrganizationID,
		})
	}
	return items, nil
}

func (s *Service) SetActiveOrganization(ctx context.Context, session Session, organizationID string) (map[string]any, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return nil, err
	}
	if err := s.sessions.SetActiveOrganization(ctx, session.SID, organizationID); err != nil {
		return nil, fmt.Errorf("set active organization: %w", err)
	}
	return map[string]any{"activeOrganizationId": organizationID}, nil
}

// ListJoinableOrganizations backs the mock-join picker: orgs where the caller
// holds no owner membership.
func (s *Service) ListJoinableOrganizations(ctx context.Context, session Session) ([]map[string]any, error) {
	orgs, err := s.store.ListJoinableOrganizations(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list joinable organizations: %w", err)
	}

	items := make([]map[string]any, 0, len(orgs))
	for _, org := range orgs {
		items = append(items, map[string]any{
			"id":               org.ID,
			"name":             org.Name,
			"createdAt":        org.CreatedAt,
			"mockInvitationId": "mock-" + org.ID,
		})
	}
	return items, nil
}

// MockJoin adds the caller to an organization as a plain member. The unique
// constraint on ("organizationId","userId") makes concurrent joins safe; a
// lost race reports alreadyMember instead of failing.
func (s *Service) MockJoin(ctx context.Context, session Session, organizationID string) (map[string]any, error) {
	org, err := s.store.GetOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusNotFound, "ORG_NOT_FOUND", "Organization not found", nil)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}

	inserted, err := s.store.InsertMember(ctx, store.Member{
		ID:             util.NewID("mem"),
		OrganizationID: org.ID,
		UserID:         session.UserID,
		Role:           string(rbac.RoleMember),
	})
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	return map[string]any{
		"joined":        inserted,
		"alreadyMember": !inserted,
		"organization":  map[string]any{"id": org.ID, "name": org.Name},
	}, nil
}

// ListMembers requires only a valid session, not membership. The original
// exposes the roster to any signed-in user and clients depend on it for the
// mock-join flow.
func (s *Service) ListMembers(ctx context.Context, session Session, organizationID string) ([]map[string]any, error) {
	members, err := s.store.ListMembers(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	items := make([]map[string]any, 0, len(members))
	for _, m := range members {
		items = append(items, map[string]any{
			"id":        m.ID,
			"userId":    m.UserID,
			"name":      m.UserName,
			"email":     m.UserEmail,
			"role":      rbac.Display(m.Role),
			"createdAt": m.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) InviteMember(ctx context.Context, session Session, organizationID string, input InviteMemberInput) (map[string]any, error) {
	if _, err := s.requireOrgOwner(ctx, session, organizationID); err != nil {
		return nil, err
	}

	inviteEmail := strings.TrimSpace(strings.ToLower(input.Email))
	if inviteEmail == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "email is required", nil)
	}

	role := string(rbac.RoleMember)
	if input.Role != "" {
		if rbac.IsOwner(input.Role) {
			return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "owner role cannot be granted by invitation", nil)
		}
		role = string(rbac.Normalize(input.Role))
	}

	invitation := store.Invitation{
		ID:             util.NewID("inv"),
		OrganizationID: organizationID,
		Email:          inviteEmail,
		Role:           role,
		Status:         store.InvitationPending,
		InviterID:      session.UserID,
		ExpiresAt:      time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.store.CreateInvitation(ctx, invitation); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	org, err := s.store.GetOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}

	acceptURL := fmt.Sprintf("%s/invitations/%s/accept", s.cfg.AppBaseURL, invitation.ID)
	if s.SMTPConfigured() {
		go func() {
			if err := s.email.SendInvitationEmail(inviteEmail, org.Name, session.UserName, acceptURL); err != nil {
				log.Printf("send invitation email to %s: %v", inviteEmail, err)
			}
		}()
	} else {
		log.Printf("email not configured, invitation url for %s: %s", inviteEmail, acceptURL)
	}

	return map[string]any{
		"invitationId": invitation.ID,
		"email":        inviteEmail,
		"role":         rbac.Display(role),
		"message":      "Invitation sent",
	}, nil
}

// RemoveMember requires org owner. Owner memberships cannot be removed
// through this route, which also keeps an org from losing its last owner.
func (s *Service) RemoveMember(ctx context.Context, session Session, organizationID, memberIDOrEmail string) (map[string]any, error) {
	if _, err := s.requireOrgOwner(ctx, session, organizationID); err != nil {
		return nil, err
	}

	target := strings.TrimSpace(memberIDOrEmail)
	if target == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "memberIdOrEmail is required", nil)
	}

	member, err := s.store.FindMember(ctx, organizationID, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Member not found", nil)
		}
		return nil, fmt.Errorf("find member: %w", err)
	}

	if rbac.IsOwner(member.Role) {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Owners cannot be removed", nil)
	}

	if err := s.store.DeleteMember(ctx, member.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Member not found", nil)
		}
		return nil, fmt.Errorf("delete member: %w", err)
	}

	return map[string]any{"success": true}, nil
}

func (s *Service) AcceptInvitation(ctx context.Context, session Session, invitationID string) (map[string]any, error) {
	invitation, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Invitation not found", nil)
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	if invitation.Status != store.InvitationPending {
		return nil, domainError(http.StatusBadRequest, "INVITATION_INVALID", "Invitation is no longer pending", nil)
	}
	if time.Now().After(invitation.ExpiresAt) {
		return nil, domainError(http.StatusBadRequest, "INVITATION_INVALID", "Invitation has expired", nil)
	}
	if !strings.EqualFold(invitation.Email, session.Email) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "This invitation is addressed to a different account", nil)
	}

	if _, err := s.store.InsertMember(ctx, store.Member{
		ID:             util.NewID("mem"),
		OrganizationID: invitation.OrganizationID,
		UserID:         session.UserID,
		Role:           invitation.Role,
	}); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	if err := s.store.UpdateInvitationStatus(ctx, invitation.ID, store.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}

	return map[string]any{
		"joined":         true,
		"organizationId": invitation.OrganizationID,
		"role":           rbac.Display(invitation.Role),
	}, nil
}

func (s *Service) ListOutlines(ctx context.Context, session Session, organizationID string) ([]store.Outline, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return nil, err
	}
	outlines, err := s.store.ListOutlines(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}
	return outlines, nil
}

func (s *Service) CreateOutline(ctx context.Context, session Session, organizationID string, input OutlineInput) (store.Outline, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return store.Outline{}, err
	}

	header := strings.TrimSpace(input.Header)
	if header == "" || input.SectionType == "" || input.Status == "" {
		return store.Outline{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "header, sectionType, and status are required", nil)
	}
	if err := validateOutlineFields(input.SectionType, input.Status, input.Reviewer, input.Target, input.Limit); err != nil {
		return store.Outline{}, err
	}

	outline := store.Outline{
		OrganizationID: organizationID,
		Header:         header,
		SectionType:    input.SectionType,
		Status:         input.Status,
		Reviewer:       input.Reviewer,
	}
	if input.Target != nil {
		outline.Target = *input.Target
	}
	if input.Limit != nil {
		outline.Limit = *input.Limit
	}
	if outline.Reviewer == "" {
		outline.Reviewer = "ASSIM"
	}

	created, err := s.store.InsertOutline(ctx, outline)
	if err != nil {
		return store.Outline{}, fmt.Errorf("insert outline: %w", err)
	}

	s.indexOutline(created)
	return created, nil
}

func (s *Service) UpdateOutline(ctx context.Context, session Session, organizationID string, outlineID int64, input OutlineInput, raw map[string]any) (store.Outline, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return store.Outline{}, err
	}

	patch := buildPatch(input, raw)
	if patch.IsEmpty() {
		return store.Outline{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "no fields to update", nil)
	}
	if err := validatePatchFields(patch); err != nil {
		return store.Outline{}, err
	}

	updated, err := s.store.UpdateOutline(ctx, organizationID, outlineID, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Outline{}, domainError(http.StatusNotFound, "NOT_FOUND", "Outline not found", nil)
		}
		return store.Outline{}, fmt.Errorf("update outline: %w", err)
	}

	s.indexOutline(updated)
	return updated, nil
}

func (s *Service) DeleteOutline(ctx context.Context, session Session, organizationID string, outlineID int64) (map[string]any, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteOutline(ctx, organizationID, outlineID)
	if err != nil {
		return nil, fmt.Errorf("delete outline: %w", err)
	}
	if !deleted {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Outline not found", nil)
	}

	if s.search != nil {
		s.search.DeleteOutline(fmt.Sprintf("%d", outlineID))
	}
	return map[string]any{"success": true}, nil
}

func (s *Service) SearchOutlines(ctx context.Context, session Session, organizationID string, q search.Query) (search.Response, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return search.Response{}, err
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}, nil
	}
	q.OrganizationID = organizationID
	return s.search.Search(q), nil
}

func (s *Service) ExportPlan(ctx context.Context, session Session, organizationID string, format export.Format) (*export.Result, error) {
	if _, err := s.requireOrgMember(ctx, session, organizationID); err != nil {
		return nil, err
	}
	if format == "" {
		format = export.FormatPDF
	}
	if format != export.FormatPDF && format != export.FormatDOCX {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid format", map[string]any{"format": string(format)})
	}
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export service not configured", nil)
	}

	result, err := s.export.Export(ctx, export.Request{OrganizationID: organizationID, Format: format})
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependencies not installed", nil)
		}
		return nil, fmt.Errorf("export plan: %w", err)
	}
	return result, nil
}

func (s *Service) indexOutline(outline store.Outline) {
	if s.search == nil {
		return
	}
	s.search.IndexOutline(search.OutlineRecord{
		ID:             fmt.Sprintf("%d", outline.ID),
		OrganizationID: outline.OrganizationID,
		Header:         outline.Header,
		SectionType:    outline.SectionType,
		Status:         outline.Status,
		Target:         outline.Target,
		Limit:          outline.Limit,
		Reviewer:       outline.Reviewer,
	})
}

// buildPatch keeps only the fields actually present in the request body; an
// explicit zero (target: 0) must still patch, so presence comes from the raw
// decoded map rather than from zero values.
func buildPatch(input OutlineInput, raw map[string]any) store.OutlinePatch {
	patch := store.OutlinePatch{}
	if _, ok := raw["header"]; ok {
		header := strings.TrimSpace(input.Header)
		patch.Header = &header
	}
	if _, ok := raw["sectionType"]; ok {
		sectionType := input.SectionType
		patch.SectionType = &sectionType
	}
	if _, ok := raw["status"]; ok {
		status := input.Status
		patch.Status = &status
	}
	if _, ok := raw["target"]; ok && input.Target != nil {
		patch.Target = input.Target
	}
	if _, ok := raw["limit"]; ok && input.Limit != nil {
		patch.Limit = input.Limit
	}
	if _, ok := raw["reviewer"]; ok {
		reviewer := input.Reviewer
		patch.Reviewer = &reviewer
	}
	return patch
}

func validateOutlineFields(sectionType, status, reviewer string, target, limit *int) error {
	if _, ok := allowedSectionTypes[sectionType]; !ok {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid sectionType", map[string]any{"sectionType": sectionType})
	}
	if _, ok := allowedStatuses[status]; !ok {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid status", map[string]any{"status": status})
	}
	if reviewer != "" {
		if _, ok := allowedReviewers[reviewer]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid reviewer", map[string]any{"reviewer": reviewer})
		}
	}
	if target != nil && *target < 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "target must be non-negative", nil)
	}
	if limit != nil && *limit < 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "limit must be non-negative", nil)
	}
	return nil
}

func validatePatchFields(patch store.OutlinePatch) error {
	if patch.Header != nil && *patch.Header == "" {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "header cannot be empty", nil)
	}
	if patch.SectionType != nil {
		if _, ok := allowedSectionTypes[*patch.SectionType]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid sectionType", map[string]any{"sectionType": *patch.SectionType})
		}
	}
	if patch.Status != nil {
		if _, ok := allowedStatuses[*patch.Status]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid status", map[string]any{"status": *patch.Status})
		}
	}
	if patch.Reviewer != nil {
		if _, ok := allowedReviewers[*patch.Reviewer]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid reviewer", map[string]any{"reviewer": *patch.Reviewer})
		}
	}
	if patch.Target != nil && *patch.Target < 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "target must be non-negative", nil)
	}
	if patch.Limit != nil && *patch.Limit < 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "limit must be non-negative", nil)
	}
	return nil
}
