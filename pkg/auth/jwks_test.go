package auth

import (
	"testing"

	"github.com/harbordata/dbbroker/pkg/testhelpers"
)

func TestValidateToken_VerificationDisabled(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient: %v", err)
	}
	defer client.Close()

	claims, err := client.ValidateToken(testhelpers.GenerateTestJWT("user-42", "admin"))
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("sub = %q", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q", claims.Role)
	}
	if !claims.Active {
		t.Error("act = false")
	}
}

func TestValidateToken_MalformedToken(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient: %v", err)
	}
	defer client.Close()

	if _, err := client.ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
