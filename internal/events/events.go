package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// TopicUserRegistered is appended to the configured topic prefix.
const TopicUserRegistered = "users/registered"

// Publisher delivers a payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

// UserRegistered is published after a registration commits.
type UserRegistered struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (e UserRegistered) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) Close()                                        {}

// MQTTPublisher publishes with QoS 1 under a topic prefix.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

var _ Publisher = (*MQTTPublisher)(nil)

const (
	qos             = 1
	publishTimeout  = 5 * time.Second
	disconnectQuiet = 250
)

// MQTT connection handler
var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

// MQTT connection lost handler
var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewMQTTPublisher connects to brokerURL and returns a ready publisher.
func NewMQTTPublisher(brokerURL, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(publishTimeout)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return newMQTTPublisher(client, prefix), nil
}

func newMQTTPublisher(client mqtt.Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, timeout: publishTimeout}
}

// Publish waits for the broker ack at most publishTimeout. While the client
// is reconnecting paho holds QoS 1 tokens open until the link returns.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	full := Topic(p.prefix, topic)
	token := p.client.Publish(full, qos, false, payload)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", full, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", full, err)
	}
	log.Debug().Str("topic", full).Msg("event published")
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(disconnectQuiet)
}

// Topic joins prefix and topic with a slash, tolerating an empty prefix.
func Topic(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "/" + topic
}
