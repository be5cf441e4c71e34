package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/ports/notifications"
)

func TestNewSink_RequiresURL(t *testing.T) {
	_, err := NewSink(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSink_PostsNotification(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, err := NewSink(Config{URL: srv.URL + "/push", APIKey: "secret"})
	require.NoError(t, err)

	err = s.Push(context.Background(), notifications.Notification{
		Recipient: "u1", Title: "Lembrete de Consulta 📅", Tag: "appointment-x", RequireInteraction: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "appointment-x", got.Tag)
	assert.True(t, got.RequireInteraction)
}

func TestSink_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := NewSink(Config{URL: srv.URL})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Push(context.Background(), notifications.Notification{Recipient: "u1"}), ErrUnauthorized)
}
