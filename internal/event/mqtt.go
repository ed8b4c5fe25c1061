package event

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTBus publishes event payloads to a single MQTT topic (the analytics
// collector subscribes on the other side).
type MQTTBus struct {
	client mqtt.Client
	topic  string
	log    *zap.Logger
}

// NewMQTTBus connects to the broker and returns the bus. Reconnects are
// handled by the client; publishes while disconnected fail and are absorbed
// by the emitter.
func NewMQTTBus(brokerURL, clientID, topic string, log *zap.Logger) (*MQTTBus, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)

	tok := client.Connect()
	if !tok.WaitTimeout(5 * time.Second) {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: timeout to %s", brokerURL)
	}
	if err := tok.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	log.Info("mqtt connected",
		zap.String("broker", brokerURL), zap.String("topic", topic))
	return &MQTTBus{client: client, topic: topic, log: log}, nil
}

// Publish sends the payload at QoS 0.
func (b *MQTTBus) Publish(ctx context.Context, payload []byte) error {
	tok := b.client.Publish(b.topic, 0, false, payload)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker, allowing in-flight publishes to finish.
func (b *MQTTBus) Close() {
	b.client.Disconnect(250)
}
