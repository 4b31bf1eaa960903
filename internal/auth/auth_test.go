package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return &Keys{privateKey: privateKey, publicKey: &privateKey.PublicKey}
}

func TestTokenRoundTrip(t *testing.T) {
	k := testKeys(t)

	token, err := k.GenerateToken("user-123", []string{RoleUser})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := k.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
	if !claims.HasRole(RoleUser) {
		t.Error("claims missing USER role")
	}
	if claims.HasRole(RoleAdmin) {
		t.Error("claims unexpectedly carry ADMIN role")
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	k := testKeys(t)

	token, err := k.GenerateToken("user-123", []string{RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := k.ValidateToken(tampered); err == nil {
		t.Error("ValidateToken accepted a tampered token")
	}
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	signer := testKeys(t)
	verifier := testKeys(t)

	token, err := signer.GenerateToken("user-123", []string{RoleUser})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("ValidateToken accepted a token signed by another key")
	}
}

func TestGenerateTokenWithoutPrivateKey(t *testing.T) {
	k := testKeys(t)
	verifyOnly := &Keys{publicKey: k.publicKey}

	if _, err := verifyOnly.GenerateToken("user-123", []string{RoleUser}); err == nil {
		t.Error("GenerateToken succeeded without a private key")
	}
}
