package auth

import (
	"errors"
	"fmt"
	"time"

	"wms-backend/internal/config"
	"wms-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type JWTCustomClaims struct {
	Role models.UserRole `json:"role"`
	Type string          `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func GenerateToken(secret string, user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		Role: user.Role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateTokenPair issues a short-lived access token and a refresh token.
func GenerateTokenPair(cfg config.AuthConfig, user *models.User) (TokenPair, error) {
	accessTTL := time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute
	access, err := GenerateToken(cfg.JWTSecret, user, TokenTypeAccess, accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := GenerateToken(cfg.JWTSecret, user, TokenTypeRefresh, time.Duration(cfg.RefreshTokenExpireDays)*24*time.Hour)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
	}, nil
}

var ErrWrongTokenType = errors.New("wrong token type")

// ParseToken verifies signature and expiry and checks the token type.
func ParseToken(secret, tokenStr, wantType string) (*JWTCustomClaims, uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != wantType {
		return nil, uuid.Nil, ErrWrongTokenType
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, jwt.ErrTokenInvalidSubject
	}
	return claims, userID, nil
}
