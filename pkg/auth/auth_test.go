package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndVerifyToken(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("s3cret-token")
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash %q does not look like bcrypt", hash)
	}

	if !VerifyToken(hash, "s3cret-token") {
		t.Error("correct token should verify")
	}
	if VerifyToken(hash, "wrong-token") {
		t.Error("wrong token should not verify")
	}
	if VerifyToken("not-a-hash", "s3cret-token") {
		t.Error("malformed hash should not verify")
	}
}

func TestGenerateAndParseJWT(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	token, err := GenerateJWT(secret, "client-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ParseJWT(secret, token)
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.Subject != "client-1" {
		t.Errorf("subject = %q, want client-1", claims.Subject)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := GenerateJWT([]byte("secret-a"), "client-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ParseJWT([]byte("secret-b"), token); err == nil {
		t.Error("token signed with a different secret should not parse")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	token, err := GenerateJWT(secret, "client-1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ParseJWT(secret, token); err == nil {
		t.Error("expired token should not parse")
	}
}

func TestParseJWT_Empty(t *testing.T) {
	t.Parallel()

	if _, err := ParseJWT([]byte("s"), ""); err == nil {
		t.Error("empty token should error")
	}
}
