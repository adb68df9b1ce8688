package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
	"iot-command-relay/logger"
	"iot-command-relay/metrics"
	"iot-command-relay/mirror"
)

var errBrokerDown = errors.New("broker down")

// recordingMirror remembers what it was asked to publish and fails when err is set.
type recordingMirror struct {
	mu       sync.Mutex
	err      error
	commands []db.Instruction
	readings []db.Reading
}

func (m *recordingMirror) PublishCommand(_ context.Context, inst db.Instruction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, inst)
	return m.err
}

func (m *recordingMirror) PublishReading(_ context.Context, reading db.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, reading)
	return m.err
}

func (m *recordingMirror) Status() mirror.Status {
	return mirror.Status{Name: "recording", Enabled: true, Connected: m.err == nil}
}

func (m *recordingMirror) Close() {}

func setupTestServer(t *testing.T, m mirror.Mirror) (*fiber.App, *Server) {
	t.Helper()

	config := db.Config{
		Driver:   db.DriverSQLite,
		Database: ":memory:",
	}

	store, err := db.Open(context.Background(), config)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := store.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	server := NewServer(store, m, metrics.New())

	app := NewApp()
	app.Use(logger.Middleware())
	Init(app, server)

	return app, server
}

func doRequest(t *testing.T, app *fiber.App, method, path, contentType, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	return resp, respBody
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, []byte) {
	return doRequest(t, app, "POST", path, fiber.MIMEApplicationJSON, body)
}

func postForm(t *testing.T, app *fiber.App, path, body string) (*http.Response, []byte) {
	return doRequest(t, app, "POST", path, fiber.MIMEApplicationForm, body)
}
