// Package hostedauth verifica tokens preguntándole al servicio de auth hosted.
// Sirve cuando no se tiene el JWT secret del proyecto (AUTH_MODE=remote).
package hostedauth

import (
	"context"
	"strings"

	"family-care/internal/ports/auth"
)

type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return v.client.GetUser(ctx, token)
}

var _ auth.Verifier = (*Verifier)(nil)
