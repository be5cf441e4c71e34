package notifications

import (
	"context"
	"errors"
	"time"
)

// Permission es el estado del permiso de notificaciones de un destinatario.
type Permission string

const (
	PermissionDefault Permission = "default" // aún no se preguntó
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	}
	return false
}

var ErrNotFound = errors.New("notification not found")

// Notification es lo que se emite hacia la plataforma.
type Notification struct {
	Recipient string

	Title string
	Body  string

	// Tag deduplica: emitir otra notificación con el mismo tag reemplaza la visible.
	Tag  string
	Icon string

	// RequireInteraction: queda visible hasta que el usuario la descarta.
	RequireInteraction bool

	EmittedAt time.Time
}

// Handle permite interactuar con una notificación emitida.
type Handle interface {
	Tag() string
	// Focus registra el click del usuario y la cierra.
	Focus(ctx context.Context) error
	Close(ctx context.Context) error
}

// Notifier es la capacidad de notificaciones de la plataforma.
type Notifier interface {
	Permission(ctx context.Context, recipient string) (Permission, error)
	RequestPermission(ctx context.Context, recipient string, answer Permission) (Permission, error)
	Emit(ctx context.Context, n Notification) (Handle, error)
}

// Inbox expone las notificaciones visibles (las que el front muestra).
type Inbox interface {
	List(ctx context.Context, recipient string) ([]Notification, error)
	Focus(ctx context.Context, recipient, tag string) error
	Dismiss(ctx context.Context, recipient, tag string) error
}
