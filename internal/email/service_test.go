package email

import (
	"strings"
	"testing"
)

func TestIsConfiguredNeedsHostPortAndFrom(t *testing.T) {
	full := Config{Host: "smtp.example.com", Port: "587", From: "noreply@example.com"}
	if !NewService(full).IsConfigured() {
		t.Fatal("complete config should be configured")
	}
	if NewService(Config{}).IsConfigured() {
		t.Fatal("empty config should not be configured")
	}

	partials := map[string]Config{
		"no host": {Port: full.Port, From: full.From},
		"no port": {Host: full.Host, From: full.From},
		"no from": {Host: full.Host, Port: full.Port},
	}
	for name, cfg := range partials {
		if NewService(cfg).IsConfigured() {
			t.Errorf("%s: partial config should not be configured", name)
		}
	}
}

func TestVerificationTemplate(t *testing.T) {
	html, err := renderTemplate(verificationEmailTemplate, VerificationData{
		AppName:         "CapturePlan",
		UserName:        "Alma",
		VerificationURL: "https://app.example.com/verify-email?token=tok123",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}

	for _, want := range []string{"Alma", "CapturePlan", "https://app.example.com/verify-email?token=tok123"} {
		if !strings.Contains(html, want) {
			t.Errorf("verification mail missing %q", want)
		}
	}
}

func TestPasswordResetTemplateMentionsExpiry(t *testing.T) {
	html, err := renderTemplate(passwordResetEmailTemplate, PasswordResetData{
		AppName:  "CapturePlan",
		UserName: "Alma",
		ResetURL: "https://app.example.com/reset-password?token=tok456",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}

	if !strings.Contains(html, "https://app.example.com/reset-password?token=tok456") {
		t.Error("reset mail must carry the reset link")
	}
	if !strings.Contains(html, "1 hour") {
		t.Error("reset mail must state the link lifetime")
	}
}

func TestInvitationTemplateEscapesOrganizationName(t *testing.T) {
	html, err := renderTemplate(invitationEmailTemplate, InvitationData{
		AppName:          "CapturePlan",
		OrganizationName: "Acme <Proposals>",
		InviterName:      "Alma",
		AcceptURL:        "https://app.example.com/invitations/inv_1/accept",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}

	if strings.Contains(html, "Acme <Proposals>") {
		t.Error("organization name must be HTML-escaped")
	}
	if !strings.Contains(html, "Acme &lt;Proposals&gt;") {
		t.Error("escaped organization name missing")
	}
	if !strings.Contains(html, "Alma") || !strings.Contains(html, "https://app.example.com/invitations/inv_1/accept") {
		t.Error("invitation mail must name the inviter and carry the accept link")
	}
}
