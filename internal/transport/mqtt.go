package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/twmccart/watchface1/internal/message"
)

// Role selects which side of the link an MQTT client plays.
type Role int

const (
	// RoleCompanion publishes downlink messages and consumes uplink requests.
	RoleCompanion Role = iota
	// RoleDevice publishes uplink requests and consumes downlink messages.
	RoleDevice
)

// MQTTConfig configures the broker connection and topic prefix. Downlink
// messages go to <TopicPrefix>/downlink, device requests to <TopicPrefix>/uplink.
type MQTTConfig struct {
	Broker      string
	Port        int
	ClientID    string
	TopicPrefix string
	QoS         byte
}

func (c MQTTConfig) downlinkTopic() string { return c.TopicPrefix + "/downlink" }
func (c MQTTConfig) uplinkTopic() string   { return c.TopicPrefix + "/uplink" }

// MQTT is a point-to-point link to one paired device over a broker.
type MQTT struct {
	client    mqtt.Client
	cfg       MQTTConfig
	role      Role
	logger *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once

	onInbound  InboundHandler
	onDownlink DownlinkHandler
}

func NewMQTT(cfg MQTTConfig, role Role, logger *slog.Logger) *MQTT {
	m := &MQTT{
		cfg:    cfg,
		role:   role,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Resubscribe on every (re)connect; clean sessions drop subscriptions.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
		if err := m.subscribe(c); err != nil {
			logger.Error("mqtt subscribe failed", "error", err)
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	m.client = mqtt.NewClient(opts)
	return m
}

// OnInbound sets the handler for device requests (companion role).
func (m *MQTT) OnInbound(h InboundHandler) { m.onInbound = h }

// OnDownlink sets the handler for companion messages (device role).
func (m *MQTT) OnDownlink(h DownlinkHandler) { m.onDownlink = h }

// Connect waits for the initial broker connection, respecting ctx and Close.
// When ctx expires first the client keeps retrying in the background.
func (m *MQTT) Connect(ctx context.Context) error {
	select {
	case <-m.stopCh:
		return fmt.Errorf("mqtt link stopped")
	default:
	}

	if m.IsConnected() {
		return nil
	}

	token := m.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stopCh:
			m.client.Disconnect(0)
			return fmt.Errorf("mqtt link stopped")
		default:
		}
	}
}

func (m *MQTT) subscribeTopic() string {
	if m.role == RoleDevice {
		return m.cfg.downlinkTopic()
	}
	return m.cfg.uplinkTopic()
}

func (m *MQTT) subscribe(c mqtt.Client) error {
	topic := m.subscribeTopic()
	token := c.Subscribe(topic, m.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		m.handlePayload(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}
	m.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", m.cfg.QoS)
	return nil
}

func (m *MQTT) handlePayload(topic string, payload []byte) {
	m.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))
	ctx := context.Background()

	switch m.role {
	case RoleDevice:
		var msg message.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			m.logger.Warn("failed to parse downlink message", "topic", topic, "error", err, "payload", string(payload))
			return
		}
		if m.onDownlink != nil {
			m.onDownlink(ctx, msg)
		}
	default:
		in, err := message.ParseInbound(payload)
		if err != nil {
			m.logger.Warn("failed to parse device message", "topic", topic, "error", err, "payload", string(payload))
			return
		}
		if m.onInbound != nil {
			m.onInbound(ctx, in)
		}
	}
}

// Send publishes m on the downlink topic without waiting for the broker's
// acknowledgement; a late failure is only logged.
func (m *MQTT) Send(_ context.Context, msg message.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrTransport, err)
	}
	logFields(m.logger, "sending message", msg)
	return m.publish(m.cfg.downlinkTopic(), payload)
}

// RequestRefresh publishes a refresh request on the uplink topic.
func (m *MQTT) RequestRefresh(_ context.Context) error {
	payload, err := json.Marshal(map[string]int{message.KeyRequestWeather: 1})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrTransport, err)
	}
	return m.publish(m.cfg.uplinkTopic(), payload)
}

func (m *MQTT) publish(topic string, payload []byte) error {
	if !m.IsConnected() {
		return fmt.Errorf("%w: mqtt client not connected", ErrTransport)
	}

	token := m.client.Publish(topic, m.cfg.QoS, false, payload)
	go func() {
		if !token.WaitTimeout(10 * time.Second) {
			m.logger.Warn("mqtt publish not acknowledged", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			m.logger.Warn("mqtt publish failed", "topic", topic, "error", fmt.Errorf("%w: %v", ErrTransport, err))
		}
	}()
	return nil
}

// IsConnected reports the client's own connection state, so a link is usable
// as soon as Connect returns. A closed link is never connected.
func (m *MQTT) IsConnected() bool {
	select {
	case <-m.stopCh:
		return false
	default:
	}
	return m.client != nil && m.client.IsConnected()
}

// Close disconnects from the broker. Safe to call more than once.
func (m *MQTT) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })

	if m.client != nil && m.client.IsConnected() {
		token := m.client.Unsubscribe(m.subscribeTopic())
		token.WaitTimeout(2 * time.Second)
	}
	if m.client != nil {
		m.client.Disconnect(250)
	}

	m.logger.Info("mqtt link closed")
}
