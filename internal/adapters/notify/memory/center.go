// Package memory implementa la capacidad de notificaciones en memoria:
// permiso por usuario y bandeja de notificaciones visibles, deduplicadas por tag.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"family-care/internal/ports/notifications"
)

type Center struct {
	mu      sync.RWMutex
	perms   map[string]notifications.Permission
	visible map[string]map[string]notifications.Notification // recipient -> tag -> n
	focused map[string]int                                   // recipient -> clicks
}

func NewCenter() *Center {
	return &Center{
		perms:   make(map[string]notifications.Permission),
		visible: make(map[string]map[string]notifications.Notification),
		focused: make(map[string]int),
	}
}

func (c *Center) Permission(ctx context.Context, recipient string) (notifications.Permission, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.perms[recipient]
	if !ok {
		return notifications.PermissionDefault, nil
	}
	return p, nil
}

func (c *Center) RequestPermission(ctx context.Context, recipient string, answer notifications.Permission) (notifications.Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.perms[recipient]; ok && p != notifications.PermissionDefault {
		return p, nil
	}
	c.perms[recipient] = answer
	return answer, nil
}

// Emit reemplaza la notificación visible con el mismo tag.
func (c *Center) Emit(ctx context.Context, n notifications.Notification) (notifications.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byTag, ok := c.visible[n.Recipient]
	if !ok {
		byTag = make(map[string]notifications.Notification)
		c.visible[n.Recipient] = byTag
	}
	byTag[n.Tag] = n
	return handle{c: c, recipient: n.Recipient, tag: n.Tag}, nil
}

// List devuelve las visibles, más recientes primero.
func (c *Center) List(ctx context.Context, recipient string) ([]notifications.Notification, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]notifications.Notification, 0, len(c.visible[recipient]))
	for _, n := range c.visible[recipient] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmittedAt.Equal(out[j].EmittedAt) {
			return out[i].Tag < out[j].Tag
		}
		return out[i].EmittedAt.After(out[j].EmittedAt)
	})
	return out, nil
}

func (c *Center) Focus(ctx context.Context, recipient, tag string) error {
	if err := c.Dismiss(ctx, recipient, tag); err != nil {
		return err
	}
	c.mu.Lock()
	c.focused[recipient]++
	c.mu.Unlock()
	return nil
}

func (c *Center) Dismiss(ctx context.Context, recipient, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tag = strings.TrimSpace(tag)
	if _, ok := c.visible[recipient][tag]; !ok {
		return notifications.ErrNotFound
	}
	delete(c.visible[recipient], tag)
	return nil
}

// Focused cuenta los clicks registrados de recipient.
func (c *Center) Focused(recipient string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.focused[recipient]
}

type handle struct {
	c         *Center
	recipient string
	tag       string
}

func (h handle) Tag() string { return h.tag }

func (h handle) Focus(ctx context.Context) error { return h.c.Focus(ctx, h.recipient, h.tag) }

func (h handle) Close(ctx context.Context) error { return h.c.Dismiss(ctx, h.recipient, h.tag) }

var (
	_ notifications.Notifier = (*Center)(nil)
	_ notifications.Inbox    = (*Center)(nil)
)
