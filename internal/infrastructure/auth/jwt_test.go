package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/bookkeeper/internal/domain"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("super-secret", time.Minute)
	p := domain.Principal{OwnerID: "owner-1", Role: domain.RoleBookkeeper}

	token, err := manager.Generate(p)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if claims.Principal() != p {
		t.Fatalf("expected principal %+v, got %+v", p, claims.Principal())
	}
	if claims.Subject != "owner-1" || claims.Issuer != issuer {
		t.Fatalf("unexpected registered claims %+v", claims.RegisteredClaims)
	}
}

func TestJWTManagerGenerateRejectsBadPrincipal(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", time.Minute)

	for _, p := range []domain.Principal{
		{Role: domain.RoleAdmin},
		{OwnerID: "owner-1", Role: "auditor"},
	} {
		if _, err := manager.Generate(p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", p, err)
		}
	}
}

func TestJWTManagerVerifyExpired(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	manager := NewJWTManager("secret", time.Minute)
	manager.now = func() time.Time { return issued }

	token, err := manager.Generate(domain.Principal{OwnerID: "owner-1", Role: domain.RoleViewer})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	manager.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := manager.Verify(token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestJWTManagerVerifyInvalid(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", time.Minute)
	other := NewJWTManager("other-secret", time.Minute)

	foreign, err := other.Generate(domain.Principal{OwnerID: "owner-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OwnerID: "owner-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	noRoleToken, err := noRole.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OwnerID: "owner-1",
		Role:    domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	wrongIssuerToken, err := wrongIssuer.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"foreign key":  foreign,
		"missing role": noRoleToken,
		"wrong issuer": wrongIssuerToken,
	} {
		if _, err := manager.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%s: expected invalid token error, got %v", name, err)
		}
	}
}
