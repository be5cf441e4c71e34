package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims es lo que se extrae del access token del servicio de auth hosted.
type Claims struct {
	UserID string // sub
	Email  string
	Role   string // p.ej. "authenticated"

	ExpiresAt time.Time
}

// Verifier valida un token y devuelve sus claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
