package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func configureJWTForTest(t *testing.T, secret string, expirationHours int) {
	t.Helper()

	originalSecret := append([]byte(nil), jwtSecret...)
	originalExpiration := jwtExpirationHours

	t.Cleanup(func() {
		jwtSecret = originalSecret
		jwtExpirationHours = originalExpiration
	})

	ConfigureJWT(secret, expirationHours)
}

func TestConfigureJWT(t *testing.T) {
	t.Run("updates secret and expiration when valid values are provided", func(t *testing.T) {
		configureJWTForTest(t, "test-secret", 72)

		if got := string(jwtSecret); got != "test-secret" {
			t.Fatalf("expected jwt secret to be %q, got %q", "test-secret", got)
		}
		if jwtExpirationHours != 72 {
			t.Fatalf("expected jwt expiration to be %d, got %d", 72, jwtExpirationHours)
		}
	})

	t.Run("ignores empty secret and non-positive expiration", func(t *testing.T) {
		configureJWTForTest(t, "initial-secret", 24)

		ConfigureJWT("", 0)

		if got := string(jwtSecret); got != "initial-secret" {
			t.Fatalf("expected jwt secret to remain %q, got %q", "initial-secret", got)
		}
		if jwtExpirationHours != 24 {
			t.Fatalf("expected jwt expiration to remain %d, got %d", 24, jwtExpirationHours)
		}
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Run("generates and validates token for a user", func(t *testing.T) {
		configureJWTForTest(t, "roundtrip-secret", 1)

		user := &models.User{
			BaseModel: models.BaseModel{ID: 42},
			Username:  "anna",
			Email:     "anna@example.com",
		}

		token, err := GenerateToken(user)
		if err != nil {
			t.Fatalf("expected token generation to succeed, got error: %v", err)
		}

		claims, err := ValidateToken(token)
		if err != nil {
			t.Fatalf("expected token validation to succeed, got error: %v", err)
		}

		if claims.UserID != user.ID {
			t.Fatalf("expected claims userID %d, got %d", user.ID, claims.UserID)
		}
		if claims.Username != user.Username {
			t.Fatalf("expected claims username %q, got %q", user.Username, claims.Username)
		}
		if claims.Subject != strconv.FormatUint(uint64(user.ID), 10) {
			t.Fatalf("expected subject %q, got %q", "42", claims.Subject)
		}
		if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
			t.Fatalf("expected token to have a future expiration, got %v", claims.ExpiresAt)
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		configureJWTForTest(t, "expired-secret", 1)

		expiredClaims := Claims{
			UserID:   7,
			Username: "expired",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				Subject:   "7",
			},
		}

		expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString(jwtSecret)
		if err != nil {
			t.Fatalf("failed to sign expired token for test: %v", err)
		}

		if _, err := ValidateToken(expiredToken); err == nil {
			t.Fatal("expected expired token validation to fail, but it succeeded")
		}
	})

	t.Run("rejects malformed token string", func(t *testing.T) {
		configureJWTForTest(t, "malformed-secret", 1)

		if _, err := ValidateToken("not-a-jwt"); err == nil {
			t.Fatal("expected malformed token validation to fail, but it succeeded")
		}
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		configureJWTForTest(t, "first-secret", 1)

		user := &models.User{BaseModel: models.BaseModel{ID: 1}, Username: "anna"}
		token, err := GenerateToken(user)
		if err != nil {
			t.Fatalf("failed generating token: %v", err)
		}

		ConfigureJWT("second-secret", 1)

		if _, err := ValidateToken(token); err == nil {
			t.Fatal("expected validation with rotated secret to fail, but it succeeded")
		}
	})

	t.Run("rejects token with an unexpected signing method", func(t *testing.T) {
		configureJWTForTest(t, "method-secret", 1)

		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed building unsigned token: %v", err)
		}

		if _, err := ValidateToken(unsigned); err == nil {
			t.Fatal("expected unsigned token validation to fail, but it succeeded")
		}
	})
}
