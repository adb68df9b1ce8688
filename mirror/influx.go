package mirror

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"iot-command-relay/db"
	"iot-command-relay/logger"
)

const readingsMeasurement = "sensor_readings"

type InfluxConfig struct {
	URL            string
	Token          string
	Org            string
	Bucket         string
	PublishTimeout time.Duration
}

// InfluxMirror writes sensor readings as points into an InfluxDB bucket. It has no use for
// commands.
type InfluxMirror struct {
	cfg      InfluxConfig
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking

	mu      sync.Mutex
	lastErr error
}

func NewInfluxMirror(cfg InfluxConfig) *InfluxMirror {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 3 * time.Second
	}
	opts := influxdb2.DefaultOptions().
		SetHTTPRequestTimeout(uint(cfg.PublishTimeout.Seconds() + 1)).
		SetMaxRetries(0)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	return &InfluxMirror{
		cfg:      cfg,
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (m *InfluxMirror) PublishCommand(context.Context, db.Instruction) error {
	return ErrDisabled
}

func (m *InfluxMirror) PublishReading(ctx context.Context, reading db.Reading) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout(ctx, m.cfg.PublishTimeout))
	defer cancel()

	ts := reading.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	tags := map[string]string{"type": reading.Type}
	fields := map[string]interface{}{"value": reading.Value}
	if reading.TextValue != nil {
		fields["text_value"] = *reading.TextValue
	}

	err := m.writeAPI.WritePoint(ctx, influxdb2.NewPoint(readingsMeasurement, tags, fields, ts))
	m.setLastError(err)
	if err != nil {
		return &Error{Op: "write " + m.cfg.Bucket, Err: err}
	}

	logger.FromContext(ctx).WithField("bucket", m.cfg.Bucket).Debug("reading written to influx")
	return nil
}

func (m *InfluxMirror) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

func (m *InfluxMirror) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		Name:      "influx",
		Enabled:   true,
		Connected: m.lastErr == nil,
		Endpoint:  m.cfg.URL,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	return status
}

func (m *InfluxMirror) Close() {
	m.client.Close()
}
