package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pair-quiz-service/internal/app"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTIdentity verifies HMAC-signed bearer tokens carrying the user id and
// login. Token issuance belongs to the identity service; IssueToken exists
// for that service and for tests.
type JWTIdentity struct {
	secret []byte
}

func NewJWTIdentity(secret string) *JWTIdentity {
	return &JWTIdentity{secret: []byte(secret)}
}

func (s *JWTIdentity) IssueToken(userID, login string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"login":   login,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTIdentity) Identify(_ context.Context, tokenString string) (app.UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return app.UserClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return app.UserClaims{}, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return app.UserClaims{}, ErrInvalidToken
	}
	login, _ := claims["login"].(string)

	return app.UserClaims{UserID: userID, Login: login}, nil
}
