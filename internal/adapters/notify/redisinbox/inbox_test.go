package redisinbox

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/ports/notifications"
)

func setupTestInbox(t *testing.T) (*miniredis.Miniredis, *Inbox) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb, Options{Prefix: "test:", TTL: time.Hour})
}

func TestPermission_DefaultThenFirstAnswerWins(t *testing.T) {
	mr, inbox := setupTestInbox(t)
	ctx := context.Background()

	p, err := inbox.Permission(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionDefault, p)

	p, err = inbox.RequestPermission(ctx, "u1", notifications.PermissionGranted)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionGranted, p)

	p, err = inbox.RequestPermission(ctx, "u1", notifications.PermissionDenied)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionGranted, p)

	v, err := mr.Get("test:perm:u1")
	require.NoError(t, err)
	assert.Equal(t, "granted", v)
}

func TestEmitListDismiss(t *testing.T) {
	mr, inbox := setupTestInbox(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)

	_, err := inbox.Emit(ctx, notifications.Notification{
		Recipient: "u1", Title: "Lembrete de Consulta 📅", Body: "Cardiologista em 1 hora",
		Tag: "appointment-2026-10-19T12:00:00.000Z", RequireInteraction: true, EmittedAt: t0,
	})
	require.NoError(t, err)
	h, err := inbox.Emit(ctx, notifications.Notification{
		Recipient: "u1", Title: "Hora do Medicamento! 💊", Body: "É hora de tomar Losartana",
		Tag: "medication-Losartana-14:00", EmittedAt: t0.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "medication-Losartana-14:00", h.Tag())

	assert.Equal(t, time.Hour, mr.TTL("test:inbox:u1"))

	items, err := inbox.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "medication-Losartana-14:00", items[0].Tag)
	assert.True(t, items[1].RequireInteraction)
	assert.True(t, items[1].EmittedAt.Equal(t0))

	require.NoError(t, h.Focus(ctx))
	v, err := mr.Get("test:focus:u1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	err = inbox.Dismiss(ctx, "u1", "medication-Losartana-14:00")
	assert.ErrorIs(t, err, notifications.ErrNotFound)

	require.NoError(t, inbox.Dismiss(ctx, "u1", "appointment-2026-10-19T12:00:00.000Z"))
	items, err = inbox.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEmit_SameTagReplaces(t *testing.T) {
	_, inbox := setupTestInbox(t)
	ctx := context.Background()

	for _, body := range []string{"a", "b"} {
		_, err := inbox.Emit(ctx, notifications.Notification{Recipient: "u1", Tag: "x", Body: body})
		require.NoError(t, err)
	}
	items, err := inbox.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Body)
}
