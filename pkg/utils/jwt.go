package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret          = []byte("change-me-in-production")
	jwtExpirationHours = 24
)

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func ConfigureJWT(secret string, expirationHours int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expirationHours > 0 {
		jwtExpirationHours = expirationHours
	}
}

func GenerateToken(user *models.User) (string, error) {
	expiresAt := time.Now().Add(time.Duration(jwtExpirationHours) * time.Hour)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
