// Package notify publishes domain events for SMS and push gateways.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Topic suffixes, appended to the configured prefix.
const (
	TopicEmergencyRequests = "emergency/requests"
	TopicServiceReminders  = "services/reminders"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher sends JSON payloads to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close()
}

// NopPublisher drops every message. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close()                                     {}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Timeout     time.Duration
}

// MQTTPublisher publishes at QoS 1 through a paho client.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
	log     *logrus.Logger
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(cfg MQTTConfig, log *logrus.Logger) (*MQTTPublisher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, cfg.TopicPrefix, cfg.Timeout, log), nil
}

func newMQTTPublisher(client mqtt.Client, prefix string, timeout time.Duration, log *logrus.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		timeout: timeout,
		log:     log,
	}
}

// Topic joins the prefix and a topic suffix.
func (p *MQTTPublisher) Topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

// Publish marshals payload as JSON and waits for the broker to acknowledge it.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	full := p.Topic(topic)
	token := p.client.Publish(full, 1, false, data)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%s: %w", full, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", full, err)
	}
	p.log.WithFields(logrus.Fields{"topic": full, "bytes": len(data)}).Debug("Published message")
	return nil
}

// Close disconnects from the broker, allowing in-flight messages 250ms to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
