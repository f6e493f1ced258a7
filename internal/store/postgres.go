package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, email_verified, verification_token, verification_expires_at)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.EmailVerified, nullIfEmpty(user.VerificationToken), user.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, email_verified, verification_token, created_at, updated_at
		FROM users WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.EmailVerified, &token, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	user.VerificationToken = token.String
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, email_verified, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3, updated_at=NOW() WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark reset used: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, record SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, active_organization_id, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			user_id=EXCLUDED.user_id,
			active_organization_id=EXCLUDED.active_organization_id,
			expires_at=EXCLUDED.expires_at,
			revoked_at=NULL
	`, record.ID, record.UserID, nullIfEmpty(record.ActiveOrganizationID), record.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupSession(ctx context.Context, sessionID string) (SessionRecord, error) {
	var record SessionRecord
	var activeOrg sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, active_organization_id, expires_at
		FROM sessions
		WHERE id=$1 AND revoked_at IS NULL AND expires_at > NOW()
	`, sessionID).Scan(&record.ID, &record.UserID, &activeOrg, &record.ExpiresAt)
	if err != nil {
		return SessionRecord{}, err
	}
	record.ActiveOrganizationID = activeOrg.String
	return record, nil
}

func (s *PostgresStore) SetActiveOrganization(ctx context.Context, sessionID, organizationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET active_organization_id=$2 WHERE id=$1 AND revoked_at IS NULL
	`, sessionID, nullIfEmpty(organizationID))
	if err != nil {
		return fmt.Errorf("set active organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked_at=NOW() WHERE id=$1`, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// CreateOrganizationWithOwner inserts the organization and its owner
// membership in one transaction so an org can never exist without an owner.
func (s *PostgresStore) CreateOrganizationWithOwner(ctx context.Context, org Organization, owner Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create org tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO organization (id, name) VALUES ($1, $2)
	`, org.ID, org.Name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert organization: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO member (id, "organizationId", "userId", role) VALUES ($1, $2, $3, $4)
	`, owner.ID, org.ID, owner.UserID, owner.Role); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create org tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrganization(ctx context.Context, organizationID string) (Organization, error) {
	var org Organization
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, "createdAt" FROM organization WHERE id=$1
	`, organizationID).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (s *PostgresStore) ListOrganizationsForUser(ctx context.Context, userID string) ([]OrganizationMembership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o."createdAt", m.role
		FROM organization o
		JOIN member m ON m."organizationId" = o.id
		WHERE m."userId" = $1
		ORDER BY o."createdAt" ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var items []OrganizationMembership
	for rows.Next() {
		var item OrganizationMembership
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt, &item.Role); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListJoinableOrganizations returns organizations where the user holds no
// owner membership, in creation order. Owner comparison is case-insensitive
// because legacy rows stored roles in either case.
func (s *PostgresStore) ListJoinableOrganizations(ctx context.Context, userID string) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o."createdAt"
		FROM organization o
		WHERE o.id NOT IN (
			SELECT "organizationId" FROM member
			WHERE "userId" = $1 AND LOWER(role) = 'owner'
		)
		ORDER BY o."createdAt" ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list joinable organizations: %w", err)
	}
	defer rows.Close()

	var items []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, org)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetMembership(ctx context.Context, organizationID, userID string) (Member, error) {
	var member Member
	err := s.db.QueryRowContext(ctx, `
		SELECT id, "organizationId", "userId", role, "createdAt"
		FROM member
		WHERE "organizationId" = $1 AND "userId" = $2
		LIMIT 1
	`, organizationID, userID).Scan(&member.ID, &member.OrganizationID, &member.UserID, &member.Role, &member.CreatedAt)
	if err != nil {
		return Member{}, err
	}
	return member, nil
}

// InsertMember adds a membership row. The unique constraint on
// (organizationId, userId) makes concurrent joins race-safe: the loser of the
// race sees inserted=false instead of a constraint violation.
func (s *PostgresStore) InsertMember(ctx context.Context, member Member) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO member (id, "organizationId", "userId", role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ("organizationId", "userId") DO NOTHING
	`, member.ID, member.OrganizationID, member.UserID, member.Role)
	if err != nil {
		return false, fmt.Errorf("insert member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert member rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, organizationID string) ([]MemberInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m."organizationId", m."userId", m.role, m."createdAt", u.name, u.email
		FROM member m
		JOIN users u ON u.id = m."userId"
		WHERE m."organizationId" = $1
		ORDER BY m."createdAt" ASC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var items []MemberInfo
	for rows.Next() {
		var item MemberInfo
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.UserID, &item.Role, &item.CreatedAt, &item.UserName, &item.UserEmail); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindMember resolves a membership within an organization by member row id
// or by the member's email, matching the removal contract.
func (s *PostgresStore) FindMember(ctx context.Context, organizationID, memberIDOrEmail string) (Member, error) {
	var member Member
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m."organizationId", m."userId", m.role, m."createdAt"
		FROM member m
		JOIN users u ON u.id = m."userId"
		WHERE m."organizationId" = $1 AND (m.id = $2 OR u.email = LOWER($2))
		LIMIT 1
	`, organizationID, memberIDOrEmail).Scan(&member.ID, &member.OrganizationID, &member.UserID, &member.Role, &member.CreatedAt)
	if err != nil {
		return Member{}, err
	}
	return member, nil
}

func (s *PostgresStore) DeleteMember(ctx context.Context, memberID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM member WHERE id=$1`, memberID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) CreateInvitation(ctx context.Context, invitation Invitation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitation (id, "organizationId", email, role, status, "inviterId", "expiresAt")
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7)
	`, invitation.ID, invitation.OrganizationID, invitation.Email, invitation.Role, invitation.Status, invitation.InviterID, invitation.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInvitation(ctx context.Context, invitationID string) (Invitation, error) {
	var invitation Invitation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, "organizationId", email, role, status, "inviterId", "expiresAt", "createdAt"
		FROM invitation WHERE id=$1
	`, invitationID).Scan(&invitation.ID, &invitation.OrganizationID, &invitation.Email, &invitation.Role,
		&invitation.Status, &invitation.InviterID, &invitation.ExpiresAt, &invitation.CreatedAt)
	if err != nil {
		return Invitation{}, err
	}
	return invitation, nil
}

func (s *PostgresStore) UpdateInvitationStatus(ctx context.Context, invitationID, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE invitation SET status=$2 WHERE id=$1`, invitationID, status)
	if err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}
	return nil
}

const outlineColumns = `id, organization_id, header, section_type, status, target, limit_value AS "limit", reviewer`

func (s *PostgresStore) ListOutlines(ctx context.Context, organizationID string) ([]Outline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+outlineColumns+`
		FROM outlines
		WHERE organization_id = $1
		ORDER BY id ASC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}
	defer rows.Close()

	var items []Outline
	for rows.Next() {
		var item Outline
		if err := scanOutline(rows.Scan, &item); err != nil {
			return nil, fmt.Errorf("scan outline: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InsertOutline(ctx context.Context, outline Outline) (Outline, error) {
	var created Outline
	err := scanOutline(s.db.QueryRowContext(ctx, `
		INSERT INTO outlines (organization_id, header, section_type, status, target, limit_value, reviewer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+outlineColumns,
		outline.OrganizationID, outline.Header, outline.SectionType, outline.Status,
		outline.Target, outline.Limit, outline.Reviewer,
	).Scan, &created)
	if err != nil {
		return Outline{}, fmt.Errorf("insert outline: %w", err)
	}
	return created, nil
}

// UpdateOutline applies a partial patch scoped by both organization and row
// id. A row that exists in a different organization yields sql.ErrNoRows,
// never an update.
func (s *PostgresStore) UpdateOutline(ctx context.Context, organizationID string, outlineID int64, patch OutlinePatch) (Outline, error) {
	setClause, args := buildOutlinePatch(patch)
	if setClause == "" {
		return Outline{}, errors.New("empty outline patch")
	}

	args = append(args, organizationID, outlineID)
	query := fmt.Sprintf(`
		UPDATE outlines
		SET %s
		WHERE organization_id = $%d AND id = $%d
		RETURNING `+outlineColumns, setClause, len(args)-1, len(args))

	var updated Outline
	if err := scanOutline(s.db.QueryRowContext(ctx, query, args...).Scan, &updated); err != nil {
		return Outline{}, err
	}
	return updated, nil
}

func (s *PostgresStore) DeleteOutline(ctx context.Context, organizationID string, outlineID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM outlines WHERE organization_id = $1 AND id = $2
	`, organizationID, outlineID)
	if err != nil {
		return false, fmt.Errorf("delete outline: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete outline rows: %w", err)
	}
	return affected > 0, nil
}

// buildOutlinePatch turns the present fields of a patch into a SET clause
// with positional placeholders starting at $1.
func buildOutlinePatch(patch OutlinePatch) (string, []any) {
	var fields []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		fields = append(fields, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Header != nil {
		add("header", *patch.Header)
	}
	if patch.SectionType != nil {
		add("section_type", *patch.SectionType)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Target != nil {
		add("target", *patch.Target)
	}
	if patch.Limit != nil {
		add("limit_value", *patch.Limit)
	}
	if patch.Reviewer != nil {
		add("reviewer", *patch.Reviewer)
	}

	return strings.Join(fields, ", "), args
}

func scanOutline(scan func(...any) error, out *Outline) error {
	return scan(&out.ID, &out.OrganizationID, &out.Header, &out.SectionType, &out.Status, &out.Target, &out.Limit, &out.Reviewer)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
