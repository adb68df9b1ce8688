package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"iot-command-relay/db"
	"iot-command-relay/mirror"
)

// Config holds the relay server settings, read from the environment.
type Config struct {
	HTTPAddr     string `env:"HTTP_ADDR,default=:8080"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	RecentLimit  int    `env:"RECENT_READINGS_LIMIT,default=10"`
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS,default=*"`

	Database Database
	MQTT     MQTT
	Influx   Influx
}

type Database struct {
	Driver   string `env:"DB_DRIVER,default=pgx"`
	Host     string `env:"DB_HOST,default=localhost"`
	Port     string `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER,default=postgres"`
	Password string `env:"DB_PASSWORD,default=postgres"`
	Name     string `env:"DB_NAME,default=iot_relay"`
	SSLMode  string `env:"DB_SSLMODE,default=disable"`
}

// MQTT configures the cloud mirror. An empty broker URL and endpoint disable it.
type MQTT struct {
	BrokerURL      string        `env:"MQTT_BROKER_URL"`
	Endpoint       string        `env:"AWS_IOT_ENDPOINT"`
	ThingName      string        `env:"AWS_IOT_THING_NAME,default=iot-relay-device"`
	CAFile         string        `env:"AWS_IOT_CA_FILE"`
	CertFile       string        `env:"AWS_IOT_CERT_FILE"`
	KeyFile        string        `env:"AWS_IOT_KEY_FILE"`
	Username       string        `env:"MQTT_USERNAME"`
	Password       string        `env:"MQTT_PASSWORD"`
	PublishTimeout time.Duration `env:"MIRROR_PUBLISH_TIMEOUT,default=3s"`
}

// Influx configures the optional time-series mirror for readings.
type Influx struct {
	URL    string `env:"INFLUX_URL"`
	Token  string `env:"INFLUX_TOKEN"`
	Org    string `env:"INFLUX_ORG,default=iot"`
	Bucket string `env:"INFLUX_BUCKET,default=sensors"`
}

// Poller holds the device poller settings.
type Poller struct {
	BaseURL    string        `env:"RELAY_BASE_URL,default=http://localhost:8080"`
	Interval   time.Duration `env:"POLL_INTERVAL,default=30s"`
	MaxElapsed time.Duration `env:"POLL_MAX_ELAPSED,default=2m"`
	LogLevel   string        `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadPoller() (*Poller, error) {
	cfg := &Poller{}
	if err := decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults alone are a valid configuration.
func decode(target interface{}) error {
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

func (d Database) DB() db.Config {
	return db.Config{
		Driver:   d.Driver,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Name,
		SSLMode:  d.SSLMode,
	}
}

// Broker returns the MQTT broker URL, deriving the AWS IoT Core TLS endpoint when only the
// endpoint host is given.
func (m MQTT) Broker() string {
	if m.BrokerURL != "" {
		return m.BrokerURL
	}
	if m.Endpoint == "" {
		return ""
	}
	if strings.Contains(m.Endpoint, "://") {
		return m.Endpoint
	}
	return fmt.Sprintf("ssl://%s:8883", m.Endpoint)
}

func (m MQTT) Enabled() bool {
	return m.Broker() != ""
}

func (m MQTT) Mirror() mirror.MQTTConfig {
	return mirror.MQTTConfig{
		BrokerURL:      m.Broker(),
		ThingName:      m.ThingName,
		CAFile:         m.CAFile,
		CertFile:       m.CertFile,
		KeyFile:        m.KeyFile,
		Username:       m.Username,
		Password:       m.Password,
		PublishTimeout: m.PublishTimeout,
	}
}

func (i Influx) Enabled() bool {
	return i.URL != ""
}

// Mirror shares the MQTT publish timeout so every sink is bounded alike.
func (i Influx) Mirror(timeout time.Duration) mirror.InfluxConfig {
	return mirror.InfluxConfig{
		URL:            i.URL,
		Token:          i.Token,
		Org:            i.Org,
		Bucket:         i.Bucket,
		PublishTimeout: timeout,
	}
}
