package servicetoken

import (
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-characters"

func TestSignerVerifierHS256(t *testing.T) {
	signer, err := NewSignerWithOptions(SignerOptions{
		Secret: testSecret,
		Issuer: "admin-cli",
		TTL:    2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := NewVerifierWithOptions(VerifierOptions{
		Secret:         testSecret,
		Audience:       "reviewloop",
		AllowedIssuers: []string{"admin-cli"},
		Leeway:         time.Second,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := signer.Sign("reviewloop")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Issuer != "admin-cli" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestSignerRequiresSecret(t *testing.T) {
	if _, err := NewSignerWithOptions(SignerOptions{Issuer: "admin-cli"}); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
}

func TestVerifierRejectsWrongAudience(t *testing.T) {
	signer, _ := NewSignerWithOptions(SignerOptions{
		Secret: testSecret,
		Issuer: "admin-cli",
		TTL:    time.Minute,
	})
	verifier, _ := NewVerifierWithOptions(VerifierOptions{
		Secret:         testSecret,
		Audience:       "other-service",
		AllowedIssuers: []string{"admin-cli"},
		Leeway:         time.Second,
	})
	token, _ := signer.Sign("reviewloop")
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected audience mismatch")
	}
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	signer, _ := NewSignerWithOptions(SignerOptions{
		Secret: "another-secret-entirely-for-this-test",
		Issuer: "admin-cli",
		TTL:    time.Minute,
	})
	verifier, _ := NewVerifierWithOptions(VerifierOptions{
		Secret:         testSecret,
		Audience:       "reviewloop",
		AllowedIssuers: []string{"admin-cli"},
		Leeway:         time.Second,
	})
	token, _ := signer.Sign("reviewloop")
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestVerifierRejectsDisallowedIssuer(t *testing.T) {
	signer, _ := NewSignerWithOptions(SignerOptions{
		Secret: testSecret,
		Issuer: "rogue-service",
		TTL:    time.Minute,
	})
	verifier, _ := NewVerifierWithOptions(VerifierOptions{
		Secret:         testSecret,
		Audience:       "reviewloop",
		AllowedIssuers: []string{"admin-cli"},
		Leeway:         time.Second,
	})
	token, _ := signer.Sign("reviewloop")
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected issuer rejection")
	}
}

func TestVerifierRejectsFutureIssuedAt(t *testing.T) {
	verifier, err := NewVerifierWithOptions(VerifierOptions{
		Secret:         testSecret,
		Audience:       "reviewloop",
		AllowedIssuers: []string{"admin-cli"},
		Leeway:         time.Second,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "admin-cli",
		Subject:   "admin-cli",
		Audience:  jwt.ClaimStrings{"reviewloop"},
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
		NotBefore: jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		ID:        "jti-1",
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := verifier.Verify(signed); err == nil {
		t.Fatalf("expected future iat token to fail")
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	token, ok := BearerToken(req)
	if !ok || token != "abc" {
		t.Fatalf("expected bearer token")
	}
}
