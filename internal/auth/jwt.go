package auth

import (
	"canvas-editor/internal/config"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("token invalid")

type Claims struct {
	UserID       uint64 `json:"user_id"`
	TokenVersion uint64 `json:"token_version"`
	Type         string `json:"type"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.AppConfig.JWTSecret)
}

func GenerateAccessToken(userID, tokenVersion uint64) (string, error) {
	return generate(userID, tokenVersion, tokenTypeAccess, AccessTokenTTL)
}

func GenerateRefreshToken(userID, tokenVersion uint64) (string, error) {
	return generate(userID, tokenVersion, tokenTypeRefresh, RefreshTokenTTL)
}

func generate(userID, tokenVersion uint64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       userID,
		TokenVersion: tokenVersion,
		Type:         tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

func VerifyAccessToken(tokenString string) (*Claims, error) {
	return verify(tokenString, tokenTypeAccess)
}

func VerifyRefreshToken(tokenString string) (*Claims, error) {
	return verify(tokenString, tokenTypeRefresh)
}

func verify(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret(), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Type != tokenType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
