package mqttpush

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/ports/notifications"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	ch := make(chan struct{})
	close(ch)
	return &fakeToken{err: err, done: ch}
}

func (t *fakeToken) Wait() bool                       { return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	err  error
	msgs []published
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newFakeToken(p.err)
}

func TestSink_PublishesPerRecipientTopic(t *testing.T) {
	pub := &fakePublisher{}
	s := NewSink(pub, "/family-care/")

	err := s.Push(context.Background(), notifications.Notification{
		Recipient: "u1",
		Title:     "Hora do Medicamento! 💊",
		Body:      "É hora de tomar Losartana",
		Tag:       "medication-Losartana-08:00",
	})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "family-care/users/u1/notifications", pub.msgs[0].topic)
	assert.Equal(t, byte(1), pub.msgs[0].qos)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &got))
	assert.Equal(t, "medication-Losartana-08:00", got["tag"])
	assert.Equal(t, "É hora de tomar Losartana", got["body"])
}

func TestSink_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	s := NewSink(pub, "")

	err := s.Push(context.Background(), notifications.Notification{Recipient: "u1", Tag: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "family-care/users/u1/notifications")
}
