package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/arcadefolio/arcadefolio/internal/config"
)

var tracer = otel.Tracer("auth")

// ErrInvalidCredentials is returned for any login failure; callers never
// learn whether the username or the password was wrong.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

type AuthService struct {
	conf config.Admin
}

func NewAuthService(conf config.Admin) *AuthService {
	return &AuthService{
		conf: conf,
	}
}

type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (string, error) {
	_, span := tracer.Start(ctx, "Auth.Service.Login")
	defer span.End()

	if username != s.conf.Username {
		span.RecordError(ErrInvalidCredentials)
		return "", ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword([]byte(s.conf.PasswordHash), []byte(password))
	if err != nil {
		span.RecordError(ErrInvalidCredentials)
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.conf.TokenTTL())),
		},
		Role: "admin",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.conf.JWTSecret))
	if err != nil {
		span.RecordError(errors.Wrap(err, "AuthService.Login: signing failed"))
		return "", err
	}

	return signed, nil
}

func (s *AuthService) Verify(ctx context.Context, tokenString string) (*AdminClaims, error) {
	_, span := tracer.Start(ctx, "Auth.Service.Verify")
	defer span.End()

	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.conf.JWTSecret), nil
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	return claims, nil
}
