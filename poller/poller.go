// Package poller is the device side of the relay: it fetches pending instructions, applies
// LED colors and reports sensor readings.
package poller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"iot-command-relay/ingest"
	"iot-command-relay/logger"
)

// Instruction mirrors the payload served by GET /api/instructions.
type Instruction struct {
	ID        int64     `json:"id"`
	Commande  string    `json:"commande"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// colorType tags instructions carrying a SET_COLOR directive.
const colorType = "COLOR"

type instructionsResponse struct {
	Instructions []Instruction `json:"instructions"`
}

// ColorApplier drives the LED.
type ColorApplier interface {
	ApplyColor(ctx context.Context, color ingest.RGB) error
}

// LogApplier only logs the color, for boards without an LED attached.
type LogApplier struct{}

func (LogApplier) ApplyColor(ctx context.Context, color ingest.RGB) error {
	logger.FromContext(ctx).WithField("color", color.Hex()).Infof("LED set to RGB(%d, %d, %d)", color.R, color.G, color.B)
	return nil
}

type Config struct {
	BaseURL    string
	Interval   time.Duration
	MaxElapsed time.Duration
}

type Poller struct {
	cfg     Config
	client  *http.Client
	applier ColorApplier
	source  SensorSource
}

func New(cfg Config, applier ColorApplier, source SensorSource) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	if applier == nil {
		applier = LogApplier{}
	}
	if source == nil {
		source = NewSimulator(0)
	}

	return &Poller{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		applier: applier,
		source:  source,
	}
}

// Run polls immediately and then on every interval until ctx is cancelled. A failed cycle
// is logged and the next one proceeds.
func (p *Poller) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Infof("Polling %s every %s", p.cfg.BaseURL, p.cfg.Interval)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := p.Cycle(ctx); err != nil {
			log.WithError(err).Warn("poll cycle failed")
		}

		select {
		case <-ctx.Done():
			log.Info("Poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle runs one poll: apply the delivered colors, then report readings. A failed fetch
// counts as no instructions; the readings are reported regardless.
func (p *Poller) Cycle(ctx context.Context) error {
	log := logger.FromContext(ctx)

	instructions, fetchErr := p.Fetch(ctx)
	if fetchErr != nil {
		log.WithError(fetchErr).Warn("no instructions this cycle")
	}

	applied := p.Apply(ctx, instructions)
	log.Debugf("applied %d of %d instructions", applied, len(instructions))

	return errors.Join(fetchErr, p.Report(ctx))
}

// Fetch retrieves pending instructions, retrying transient failures with exponential
// backoff. Every instruction returned is already marked SENT by the relay.
func (p *Poller) Fetch(ctx context.Context) ([]Instruction, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.cfg.MaxElapsed

	var instructions []Instruction
	err := backoff.Retry(func() error {
		var err error
		instructions, err = p.fetchOnce(ctx)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Debug("fetch instructions failed")
		}
		return err
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		return nil, fmt.Errorf("failed to fetch instructions: %w", err)
	}
	return instructions, nil
}

func (p *Poller) fetchOnce(ctx context.Context) ([]Instruction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url("/api/instructions"), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var payload instructionsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid instructions payload: %w", err))
	}

	return payload.Instructions, nil
}

// Apply hands every well-formed COLOR instruction to the applier and ignores the rest.
// It returns the number of colors applied.
func (p *Poller) Apply(ctx context.Context, instructions []Instruction) int {
	applied := 0
	for _, inst := range instructions {
		if inst.Type != colorType {
			continue
		}

		color, ok := ingest.ParseColorCommand(inst.Commande)
		if !ok {
			logger.FromContext(ctx).Warnf("ignoring malformed color instruction %d: %q", inst.ID, inst.Commande)
			continue
		}

		if err := p.applier.ApplyColor(ctx, color); err != nil {
			logger.FromContext(ctx).WithError(err).Errorf("failed to apply instruction %d", inst.ID)
			continue
		}
		applied++
	}
	return applied
}

// Report posts one reading per sensor. Rejected readings are logged and skipped.
func (p *Poller) Report(ctx context.Context) error {
	var failed int
	readings := p.source.Read()

	for _, reading := range readings {
		if err := p.postReading(ctx, reading); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.FromContext(ctx).WithError(err).Warnf("failed to report %s", reading.Type)
			failed++
		}
	}

	if failed == len(readings) && failed > 0 {
		return fmt.Errorf("all %d readings were rejected", failed)
	}
	return nil
}

func (p *Poller) postReading(ctx context.Context, reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("/api/capteur"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (p *Poller) url(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}
