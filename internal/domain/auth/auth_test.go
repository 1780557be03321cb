package auth

import "testing"

func TestLoginAndVerify(t *testing.T) {
	svc := NewService()
	if err := svc.Register("agent-smith", "4321"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, ok := svc.Login("agent-smith", "4321")
	if !ok || token == "" {
		t.Fatalf("login failed: ok=%v token=%q", ok, token)
	}

	agent, ok := svc.Verify(token)
	if !ok || agent != "agent-smith" {
		t.Errorf("verify = %q, %v", agent, ok)
	}
}

func TestLoginWrongPIN(t *testing.T) {
	svc := NewService()
	svc.Register("ops", "1111")

	if _, ok := svc.Login("ops", "2222"); ok {
		t.Error("expected wrong PIN to be rejected")
	}
	if _, ok := svc.Login("nobody", "1111"); ok {
		t.Error("expected unknown agent to be rejected")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := NewService()
	svc.Register("ops", "1111")

	token, _ := svc.Login("ops", "1111")
	svc.Logout(token)
	if _, ok := svc.Verify(token); ok {
		t.Error("expected token revoked after logout")
	}

	// Revoking again is harmless.
	svc.Logout(token)
}

func TestTokensAreIndependent(t *testing.T) {
	svc := NewService()
	svc.Register("ops", "1111")

	t1, _ := svc.Login("ops", "1111")
	t2, _ := svc.Login("ops", "1111")
	if t1 == t2 {
		t.Fatal("expected distinct tokens per login")
	}

	svc.Logout(t1)
	if _, ok := svc.Verify(t2); !ok {
		t.Error("expected second token to survive first logout")
	}
}

func TestReRegisterReplacesPIN(t *testing.T) {
	svc := NewService()
	svc.Register("ops", "1111")
	svc.Register("ops", "9999")

	if _, ok := svc.Login("ops", "1111"); ok {
		t.Error("expected old PIN to be rejected after re-register")
	}
	if _, ok := svc.Login("ops", "9999"); !ok {
		t.Error("expected new PIN to be accepted")
	}
}
