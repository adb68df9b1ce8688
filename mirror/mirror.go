// Package mirror relays commands and readings to external pub/sub sinks on a best-effort
// basis. A mirror failure never affects what was persisted locally.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iot-command-relay/db"
)

// ErrDisabled is returned by mirrors that have nowhere to publish.
var ErrDisabled = errors.New("mirror disabled")

// Mirror is implemented by every sink. Implementations must be safe for concurrent use.
type Mirror interface {
	PublishCommand(ctx context.Context, inst db.Instruction) error
	PublishReading(ctx context.Context, reading db.Reading) error
	Status() Status
	Close()
}

// Status is the explicit health check of a mirror.
type Status struct {
	Name      string   `json:"name"`
	Enabled   bool     `json:"enabled"`
	Connected bool     `json:"connected"`
	Endpoint  string   `json:"endpoint,omitempty"`
	Thing     string   `json:"thing,omitempty"`
	Breaker   string   `json:"breaker,omitempty"`
	LastError string   `json:"last_error,omitempty"`
	Sinks     []Status `json:"sinks,omitempty"`
}

// Error wraps a failed publish.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mirror: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CommandMessage is the JSON payload published for an instruction.
type CommandMessage struct {
	ID        int64     `json:"id,omitempty"`
	Command   string    `json:"command"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadingMessage is the JSON payload published for a sensor reading.
type ReadingMessage struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	TextValue *string   `json:"text_value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func commandMessage(inst db.Instruction) CommandMessage {
	ts := inst.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return CommandMessage{ID: inst.ID, Command: inst.Command, Type: inst.Type, Timestamp: ts}
}

func readingMessage(r db.Reading) ReadingMessage {
	return ReadingMessage{ID: r.ID, Type: r.Type, Value: r.Value, TextValue: r.TextValue, Timestamp: r.CreatedAt}
}

// Noop is used when no sink is configured.
type Noop struct{}

func (Noop) PublishCommand(context.Context, db.Instruction) error { return ErrDisabled }
func (Noop) PublishReading(context.Context, db.Reading) error     { return ErrDisabled }
func (Noop) Status() Status                                       { return Status{Name: "none"} }
func (Noop) Close()                                               {}

// Multi fans a publish out to every sink and joins their errors.
type Multi []Mirror

// Combine returns Noop, the single sink, or a Multi.
func Combine(mirrors ...Mirror) Mirror {
	switch len(mirrors) {
	case 0:
		return Noop{}
	case 1:
		return mirrors[0]
	default:
		return Multi(mirrors)
	}
}

func (m Multi) PublishCommand(ctx context.Context, inst db.Instruction) error {
	return m.each(func(sink Mirror) error { return sink.PublishCommand(ctx, inst) })
}

func (m Multi) PublishReading(ctx context.Context, reading db.Reading) error {
	return m.each(func(sink Mirror) error { return sink.PublishReading(ctx, reading) })
}

// each reports ErrDisabled only when no sink accepted the payload.
func (m Multi) each(publish func(Mirror) error) error {
	var errs []error
	accepted := 0
	for _, sink := range m {
		err := publish(sink)
		if errors.Is(err, ErrDisabled) {
			continue
		}
		accepted++
		if err != nil {
			errs = append(errs, err)
		}
	}
	if accepted == 0 {
		return ErrDisabled
	}
	return errors.Join(errs...)
}

func (m Multi) Status() Status {
	status := Status{Name: "multi", Connected: len(m) > 0}
	for _, sink := range m {
		s := sink.Status()
		status.Enabled = status.Enabled || s.Enabled
		status.Connected = status.Connected && s.Connected
		status.Sinks = append(status.Sinks, s)
	}
	return status
}

func (m Multi) Close() {
	for _, sink := range m {
		sink.Close()
	}
}

// publishTimeout picks the tighter of the context deadline and the configured timeout.
func publishTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			return remaining
		}
	}
	return timeout
}
