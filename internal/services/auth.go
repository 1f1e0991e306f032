package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified identity attached to a request. The pipeline trusts
// UserID unconditionally once the signature checks out.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// AuthService verifies bearer tokens. Issuing is kept narrow: accounts and
// credentials live outside this service, but tests and ops tooling need a way
// to mint tokens against the shared secret.
type AuthService struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (s *AuthService) IssueToken(userID string) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
