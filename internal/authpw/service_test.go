package authpw

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"captureplan/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users     map[string]store.User
	resets    map[string]string
	usedReset map[string]bool
	verified  map[string]bool
	passwords map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:     map[string]store.User{},
		resets:    map[string]string{},
		usedReset: map[string]bool{},
		verified:  map[string]bool{},
		passwords: map[string]string{},
	}
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	u, ok := f.users[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user store.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return nil
}

func (f *fakeUserStore) VerifyUserEmail(ctx context.Context, token string) error {
	for email, u := range f.users {
		if u.VerificationToken == token {
			u.EmailVerified = true
			f.users[email] = u
			f.verified[u.ID] = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeUserStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	f.passwords[userID] = passwordHash
	return nil
}

func (f *fakeUserStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.resets[token] = userID
	return nil
}

func (f *fakeUserStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	if f.usedReset[token] {
		return "", sql.ErrNoRows
	}
	userID, ok := f.resets[token]
	if !ok {
		return "", sql.ErrNoRows
	}
	return userID, nil
}

func (f *fakeUserStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	f.usedReset[token] = true
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	fs := newFakeUserStore()
	svc := NewService(fs)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Name: "Alma", Email: "Alma@Example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.VerificationToken == "" {
		t.Fatal("expected verification token")
	}
	if _, ok := fs.users["alma@example.com"]; !ok {
		t.Fatal("email not lowercased on signup")
	}

	// Unverified users can sign in but are flagged
	signin, err := svc.SignIn(ctx, SignInRequest{Email: "alma@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !signin.RequiresVerify {
		t.Fatal("expected RequiresVerify before email verification")
	}

	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	signin, err = svc.SignIn(ctx, SignInRequest{Email: "alma@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("SignIn after verify: %v", err)
	}
	if signin.RequiresVerify {
		t.Fatal("did not expect RequiresVerify after verification")
	}
	if signin.User.Name != "Alma" {
		t.Fatalf("unexpected name %q", signin.User.Name)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	fs := newFakeUserStore()
	svc := NewService(fs)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Name: "A", Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Name: "B", Email: "a@b.c", Password: "supersecret"}); err == nil {
		t.Fatal("expected duplicate email error")
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	if _, err := svc.SignUp(context.Background(), SignUpRequest{Name: "A", Email: "a@b.c", Password: "short"}); err == nil {
		t.Fatal("expected short password error")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	fs := newFakeUserStore()
	svc := NewService(fs)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Name: "A", Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@b.c", Password: "wrongwrong"}); err == nil {
		t.Fatal("expected invalid credentials error")
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@b.c", Password: "supersecret"}); err == nil {
		t.Fatal("expected invalid credentials error for unknown email")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	fs := newFakeUserStore()
	svc := NewService(fs)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Name: "A", Email: "a@b.c", Password: "supersecret"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token == "" {
		t.Fatal("expected reset token for known email")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "newsecret1"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	hash := fs.passwords[resp.UserID]
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("newsecret1")); err != nil {
		t.Fatal("stored hash does not match new password")
	}

	// Token is single-use
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "another123"}); err == nil {
		t.Fatal("expected error reusing reset token")
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc := NewService(newFakeUserStore())
	token, err := svc.RequestPasswordReset(context.Background(), "nobody@b.c")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token != "" {
		t.Fatal("expected empty token for unknown email")
	}
}
