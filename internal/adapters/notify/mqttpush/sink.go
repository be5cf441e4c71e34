// Package mqttpush publica cada notificación emitida en un topic MQTT por
// usuario ({prefix}/users/{recipient}/notifications), para clientes conectados.
package mqttpush

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"family-care/internal/ports/notifications"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher es el subconjunto de mqtt.Client que se usa.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Connect abre la conexión con reconexión automática.
func Connect(cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

type Sink struct {
	pub    Publisher
	prefix string
	qos    byte
}

func NewSink(pub Publisher, topicPrefix string) *Sink {
	p := strings.Trim(strings.TrimSpace(topicPrefix), "/")
	if p == "" {
		p = "family-care"
	}
	return &Sink{pub: pub, prefix: p, qos: 1}
}

func (s *Sink) Name() string { return "mqtt" }

func (s *Sink) Topic(recipient string) string {
	return s.prefix + "/users/" + recipient + "/notifications"
}

type payload struct {
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Tag                string    `json:"tag"`
	Icon               string    `json:"icon"`
	RequireInteraction bool      `json:"require_interaction"`
	EmittedAt          time.Time `json:"emitted_at"`
}

func (s *Sink) Push(ctx context.Context, n notifications.Notification) error {
	b, err := json.Marshal(payload{
		Title:              n.Title,
		Body:               n.Body,
		Tag:                n.Tag,
		Icon:               n.Icon,
		RequireInteraction: n.RequireInteraction,
		EmittedAt:          n.EmittedAt,
	})
	if err != nil {
		return err
	}

	topic := s.Topic(n.Recipient)
	token := s.pub.Publish(topic, s.qos, false, b)

	wait := publishTimeout
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publish to topic %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}
