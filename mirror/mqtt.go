package mirror

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"iot-command-relay/db"
	"iot-command-relay/logger"
)

var (
	errNotConnected   = errors.New("not connected to broker")
	errPublishTimeout = errors.New("publish timed out")
)

type MQTTConfig struct {
	BrokerURL string
	ThingName string
	CAFile    string
	CertFile  string
	KeyFile   string
	Username  string
	Password  string

	PublishTimeout    time.Duration
	ConnectMaxElapsed time.Duration
	ConnectRetries    uint64
}

// CommandTopic and DataTopic follow the AWS IoT policy used for the device thing.
func (c MQTTConfig) CommandTopic() string {
	return fmt.Sprintf("devices/%s/commands", c.ThingName)
}

func (c MQTTConfig) DataTopic() string {
	return fmt.Sprintf("sensors/%s/data", c.ThingName)
}

// MQTTMirror publishes commands and readings to an MQTT broker such as AWS IoT Core.
// Consecutive publish failures open a circuit breaker so requests stop paying the timeout.
type MQTTMirror struct {
	cfg     MQTTConfig
	client  mqtt.Client
	breaker *gobreaker.CircuitBreaker
}

func NewMQTTMirror(cfg MQTTConfig) (*MQTTMirror, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ThingName, uuid.NewString()[:8]))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Default().WithError(err).Warn("mqtt mirror connection lost")
	})

	if cfg.CertFile != "" || cfg.CAFile != "" {
		tlsConfig, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return newMQTTMirror(mqtt.NewClient(opts), cfg), nil
}

func newMQTTMirror(client mqtt.Client, cfg MQTTConfig) *MQTTMirror {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 3 * time.Second
	}
	if cfg.ConnectMaxElapsed <= 0 {
		cfg.ConnectMaxElapsed = 10 * time.Second
	}
	if cfg.ConnectRetries == 0 {
		cfg.ConnectRetries = 4
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mqtt-mirror",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Default().WithField("breaker", name).Infof("state %s -> %s", from, to)
		},
	})

	return &MQTTMirror{cfg: cfg, client: client, breaker: breaker}
}

func newTLSConfig(cfg MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.CertFile != "" {
		crt, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{crt}
	}

	return tlsConfig, nil
}

// Connect dials the broker with exponential backoff. A failure leaves the mirror usable but
// disconnected; publishes then fail fast.
func (m *MQTTMirror) Connect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = m.cfg.ConnectMaxElapsed

	err := backoff.Retry(func() error {
		token := m.client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			logger.FromContext(ctx).WithError(err).Warnf("failed to connect to MQTT broker %s", m.cfg.BrokerURL)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, m.cfg.ConnectRetries), ctx))

	if err != nil {
		return &Error{Op: "connect", Err: err}
	}

	logger.FromContext(ctx).Infof("connected to MQTT broker at %s", m.cfg.BrokerURL)
	return nil
}

func (m *MQTTMirror) PublishCommand(ctx context.Context, inst db.Instruction) error {
	return m.publish(ctx, m.cfg.CommandTopic(), commandMessage(inst))
}

func (m *MQTTMirror) PublishReading(ctx context.Context, reading db.Reading) error {
	return m.publish(ctx, m.cfg.DataTopic(), readingMessage(reading))
}

func (m *MQTTMirror) publish(ctx context.Context, topic string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return &Error{Op: "encode " + topic, Err: err}
	}

	_, err = m.breaker.Execute(func() (interface{}, error) {
		if !m.client.IsConnectionOpen() {
			return nil, errNotConnected
		}

		token := m.client.Publish(topic, 1, false, payload)

		timer := time.NewTimer(publishTimeout(ctx, m.cfg.PublishTimeout))
		defer timer.Stop()

		select {
		case <-token.Done():
			return nil, token.Error()
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, errPublishTimeout
		}
	})

	if err != nil {
		return &Error{Op: "publish " + topic, Err: err}
	}

	logger.FromContext(ctx).WithField("topic", topic).Debug("mirrored message")
	return nil
}

func (m *MQTTMirror) Status() Status {
	return Status{
		Name:      "mqtt",
		Enabled:   true,
		Connected: m.client.IsConnectionOpen(),
		Endpoint:  m.cfg.BrokerURL,
		Thing:     m.cfg.ThingName,
		Breaker:   m.breaker.State().String(),
	}
}

func (m *MQTTMirror) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
		logger.Default().Info("MQTT mirror disconnected")
	}
}
