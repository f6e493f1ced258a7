package store

import "time"

type User struct {
	ID                    string
	Name                  string
	Email                 string
	PasswordHash          string
	EmailVerified         bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Member struct {
	ID             string
	OrganizationID string
	UserID         string
	Role           string
	CreatedAt      time.Time
}

// MemberInfo is a membership row joined with the user it belongs to, the
// shape the roster endpoint returns.
type MemberInfo struct {
	Member
	UserName  string
	UserEmail string
}

// OrganizationMembership pairs an organization with the caller's role in it.
type OrganizationMembership struct {
	Organization
	Role string
}

type Invitation struct {
	ID             string
	OrganizationID string
	Email          string
	Role           string
	Status         string
	InviterID      string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationCanceled = "canceled"
)

// Outline is one capture-plan section row. Limit is stored under the
// limit_value column because "limit" is reserved in SQL.
type Outline struct {
	ID             int64  `json:"id"`
	OrganizationID string `json:"organization_id"`
	Header         string `json:"header"`
	SectionType    string `json:"section_type"`
	Status         string `json:"status"`
	Target         int    `json:"target"`
	Limit          int    `json:"limit"`
	Reviewer       string `json:"reviewer"`
}

// OutlinePatch carries the subset of outline fields present in a PATCH body.
// Nil means "leave unchanged".
type OutlinePatch struct {
	Header      *string
	SectionType *string
	Status      *string
	Target      *int
	Limit       *int
	Reviewer    *string
}

func (p OutlinePatch) IsEmpty() bool {
	return p.Header == nil && p.SectionType == nil && p.Status == nil &&
		p.Target == nil && p.Limit == nil && p.Reviewer == nil
}

// SessionRecord is the server-side state behind a session token.
type SessionRecord struct {
	ID                   string
	UserID               string
	ActiveOrganizationID string
	ExpiresAt            time.Time
}
