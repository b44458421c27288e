// internal/writer/mqtt/mqtt.go
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

// Config is read from the environment. An empty Broker disables the sink.
type Config struct {
	Broker   string        `env:"MQTT_BROKER"`
	ClientID string        `env:"MQTT_CLIENT_ID" envDefault:"roastcraft"`
	User     string        `env:"MQTT_USER"`
	Pass     string        `env:"MQTT_PASS"`
	Topic    string        `env:"MQTT_TOPIC" envDefault:"roastcraft"`
	QoS      byte          `env:"MQTT_QOS" envDefault:"0"`
	Timeout  time.Duration `env:"MQTT_TIMEOUT" envDefault:"5s"`
}

func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// Publisher sends each snapshot as JSON to <topic>/readings and every
// channel value to <topic>/<channel slug>.
type Publisher struct {
	client paho_mqtt.Client
	topic  string
	qos    byte
	wait   time.Duration
	logger *zap.Logger
}

func New(client paho_mqtt.Client, cfg Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.L()
	}
	wait := cfg.Timeout
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &Publisher{
		client: client,
		topic:  strings.TrimSuffix(cfg.Topic, "/"),
		qos:    cfg.QoS,
		wait:   wait,
		logger: logger.With(zap.String("sink", "mqtt")),
	}
}

// Connect dials the broker and returns a ready publisher.
func Connect(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mqtt: broker not configured")
	}

	if logger == nil {
		logger = zap.L()
	}

	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Pass)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.OnConnectionLost = func(_ paho_mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.String("broker", cfg.Broker), zap.Error(err))
	}

	p := New(paho_mqtt.NewClient(opts), cfg, logger)

	if err := p.connect(); err != nil {
		return nil, err
	}
	p.logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	return p, nil
}

func (p *Publisher) connect() error {
	token := p.client.Connect()
	if token.WaitTimeout(p.wait) {
		return token.Error()
	}
	return errors.New("mqtt: unable to connect in time")
}

func (p *Publisher) Write(ctx context.Context, snap device.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("mqtt: encode reading: %w", err)
	}

	errs := p.publish(ctx, p.topic+"/readings", payload)
	channels, _ := device.AsChannels(snap)
	for id, v := range channels {
		errs = multierr.Append(errs, p.publish(ctx, p.topic+"/"+ChannelTopic(id), formatValue(v)))
	}
	return errs
}

// Close disconnects, allowing in-flight publishes 250ms to drain.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt: publish %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.wait):
		return fmt.Errorf("mqtt: publish %s: timed out after %s", topic, p.wait)
	}
}

// ChannelTopic turns a channel id into a topic segment: "Bean Temp" -> "bean_temp".
func ChannelTopic(id string) string {
	return strings.ReplaceAll(slug.Make(id), "-", "_")
}

func formatValue(v any) []byte {
	switch n := v.(type) {
	case float64:
		return []byte(strconv.FormatFloat(n, 'f', -1, 64))
	case string:
		return []byte(n)
	default:
		b, err := json.Marshal(n)
		if err != nil {
			return []byte(fmt.Sprint(n))
		}
		return b
	}
}
