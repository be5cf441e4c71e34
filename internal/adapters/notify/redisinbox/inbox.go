// Package redisinbox guarda el permiso de notificaciones y las notificaciones
// visibles en Redis, para que varias instancias de la API compartan la bandeja.
package redisinbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"family-care/internal/ports/notifications"
)

const (
	DefaultPrefix = "family-care:notify:"
	// DefaultTTL limita cuánto vive una bandeja sin actividad.
	DefaultTTL = 7 * 24 * time.Hour
)

type Options struct {
	Prefix string
	TTL    time.Duration
}

type Inbox struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func New(rdb *redis.Client, opts Options) *Inbox {
	if strings.TrimSpace(opts.Prefix) == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Inbox{rdb: rdb, prefix: opts.Prefix, ttl: opts.TTL}
}

func (i *Inbox) permKey(recipient string) string  { return i.prefix + "perm:" + recipient }
func (i *Inbox) inboxKey(recipient string) string { return i.prefix + "inbox:" + recipient }
func (i *Inbox) focusKey(recipient string) string { return i.prefix + "focus:" + recipient }

type stored struct {
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Tag                string    `json:"tag"`
	Icon               string    `json:"icon"`
	RequireInteraction bool      `json:"require_interaction"`
	EmittedAt          time.Time `json:"emitted_at"`
}

func (i *Inbox) Permission(ctx context.Context, recipient string) (notifications.Permission, error) {
	v, err := i.rdb.Get(ctx, i.permKey(recipient)).Result()
	if errors.Is(err, redis.Nil) {
		return notifications.PermissionDefault, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get permission: %w", err)
	}
	p := notifications.Permission(v)
	if !p.Valid() {
		return notifications.PermissionDefault, nil
	}
	return p, nil
}

// RequestPermission usa SETNX: si otra instancia ya guardó una respuesta, gana esa.
func (i *Inbox) RequestPermission(ctx context.Context, recipient string, answer notifications.Permission) (notifications.Permission, error) {
	if answer == notifications.PermissionDefault {
		return i.Permission(ctx, recipient)
	}
	ok, err := i.rdb.SetNX(ctx, i.permKey(recipient), string(answer), 0).Result()
	if err != nil {
		return "", fmt.Errorf("redis set permission: %w", err)
	}
	if !ok {
		return i.Permission(ctx, recipient)
	}
	return answer, nil
}

// Emit guarda la notificación en el hash del destinatario; el tag es el campo,
// así que una nueva con el mismo tag reemplaza la anterior.
func (i *Inbox) Emit(ctx context.Context, n notifications.Notification) (notifications.Handle, error) {
	b, err := json.Marshal(stored{
		Title:              n.Title,
		Body:               n.Body,
		Tag:                n.Tag,
		Icon:               n.Icon,
		RequireInteraction: n.RequireInteraction,
		EmittedAt:          n.EmittedAt,
	})
	if err != nil {
		return nil, err
	}

	key := i.inboxKey(n.Recipient)
	pipe := i.rdb.TxPipeline()
	pipe.HSet(ctx, key, n.Tag, b)
	pipe.Expire(ctx, key, i.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis emit: %w", err)
	}
	return handle{inbox: i, recipient: n.Recipient, tag: n.Tag}, nil
}

func (i *Inbox) List(ctx context.Context, recipient string) ([]notifications.Notification, error) {
	raw, err := i.rdb.HGetAll(ctx, i.inboxKey(recipient)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list inbox: %w", err)
	}

	out := make([]notifications.Notification, 0, len(raw))
	for _, v := range raw {
		var s stored
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			continue
		}
		out = append(out, notifications.Notification{
			Recipient:          recipient,
			Title:              s.Title,
			Body:               s.Body,
			Tag:                s.Tag,
			Icon:               s.Icon,
			RequireInteraction: s.RequireInteraction,
			EmittedAt:          s.EmittedAt,
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].EmittedAt.Equal(out[b].EmittedAt) {
			return out[a].Tag < out[b].Tag
		}
		return out[a].EmittedAt.After(out[b].EmittedAt)
	})
	return out, nil
}

func (i *Inbox) Focus(ctx context.Context, recipient, tag string) error {
	if err := i.Dismiss(ctx, recipient, tag); err != nil {
		return err
	}
	if err := i.rdb.Incr(ctx, i.focusKey(recipient)).Err(); err != nil {
		return fmt.Errorf("redis focus: %w", err)
	}
	return nil
}

func (i *Inbox) Dismiss(ctx context.Context, recipient, tag string) error {
	n, err := i.rdb.HDel(ctx, i.inboxKey(recipient), strings.TrimSpace(tag)).Result()
	if err != nil {
		return fmt.Errorf("redis dismiss: %w", err)
	}
	if n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}

type handle struct {
	inbox     *Inbox
	recipient string
	tag       string
}

func (h handle) Tag() string                     { return h.tag }
func (h handle) Focus(ctx context.Context) error { return h.inbox.Focus(ctx, h.recipient, h.tag) }
func (h handle) Close(ctx context.Context) error { return h.inbox.Dismiss(ctx, h.recipient, h.tag) }

var (
	_ notifications.Notifier = (*Inbox)(nil)
	_ notifications.Inbox    = (*Inbox)(nil)
)
