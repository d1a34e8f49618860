package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	token, expiresAt, err := j.Sign(Claims{Identity: "farmer-1", Role: RoleFarmer})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expiresAt) < 55*time.Minute {
		t.Fatalf("expiresAt=%v too soon", expiresAt)
	}

	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Identity != "farmer-1" || claims.Role != RoleFarmer {
		t.Fatalf("claims=%+v", claims)
	}
	if claims.Issuer != "farmflow" {
		t.Fatalf("issuer=%s", claims.Issuer)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := JWT{Secret: []byte("secret-a"), TokenTTL: time.Hour}
	b := JWT{Secret: []byte("secret-b"), TokenTTL: time.Hour}

	token, _, err := a.Sign(Claims{Identity: "buyer-1", Role: RoleBuyer})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Fatal("want verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	past := jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token, _, err := j.Sign(Claims{
		Identity:         "buyer-1",
		Role:             RoleBuyer,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := j.Verify(token); err == nil {
		t.Fatal("want verification failure for expired token")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}
	if _, err := j.Verify("not.a.token"); err == nil {
		t.Fatal("want parse failure")
	}
}
