package chatinfra

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenService signs session cookies with HS256
type JWTTokenService struct {
	secretKey []byte
	issuer    string
}

func NewJWTTokenService(secret, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secretKey: []byte(secret),
		issuer:    issuer,
	}
}

var _ chat.TokenService = (*JWTTokenService)(nil)

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (j *JWTTokenService) Issue(sessionID string, expiresAt time.Time) (string, error) {
	now := time.Now()

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", chat.ErrInvalidToken().WithDetail("error", err.Error())
	}
	return tokenString, nil
}

func (j *JWTTokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(j.issuer))
	if err != nil {
		return "", chat.ErrInvalidToken().WithDetail("error", err.Error())
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", chat.ErrInvalidToken().WithDetail("error", "invalid claims")
	}
	return claims.SessionID, nil
}
