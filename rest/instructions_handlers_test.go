package rest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iot-command-relay/db"
)

func TestPollInstructionsHandler(t *testing.T) {
	app, _ := setupTestServer(t, nil)

	resp, _ := postJSON(t, app, "/api/commande", `{"commande":"LED_ON"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = postJSON(t, app, "/api/led", `{"rgb":[255,128,0]}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, app, "GET", "/api/instructions", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var first PollResponse
	require.NoError(t, json.Unmarshal(body, &first))
	require.Len(t, first.Instructions, 2)

	assert.Equal(t, "LED_ON", first.Instructions[0].Commande)
	assert.Equal(t, "", first.Instructions[0].Type)
	assert.Equal(t, "SET_COLOR:255,128,0", first.Instructions[1].Commande)
	assert.Equal(t, "COLOR", first.Instructions[1].Type)
	assert.Less(t, first.Instructions[0].ID, first.Instructions[1].ID)
	for _, inst := range first.Instructions {
		assert.Equal(t, "SENT", inst.Status)
		assert.False(t, inst.Timestamp.IsZero())
	}

	resp, body = doRequest(t, app, "GET", "/api/instructions", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"instructions":[]}`, string(body))
}

func TestPollInstructionsHandlerStorageFailure(t *testing.T) {
	app, server := setupTestServer(t, nil)
	server.Store.Close()

	resp, body := doRequest(t, app, "GET", "/api/instructions", "", "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)
}

func TestSetLEDHandler(t *testing.T) {
	tests := []struct {
		name           string
		payload        string
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:           "RGB triple",
			payload:        `{"rgb":[10,20,30]}`,
			expectedStatus: fiber.StatusCreated,
			checkResponse: func(t *testing.T, body []byte) {
				var response SetLEDResponse
				if err := json.Unmarshal(body, &response); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if !response.Success {
					t.Error("Expected success")
				}
				if response.Command != "SET_COLOR:10,20,30" {
					t.Errorf("Expected command 'SET_COLOR:10,20,30', got '%s'", response.Command)
				}
				if response.ID == 0 {
					t.Error("Expected non-zero instruction ID")
				}
			},
		},
		{
			name:           "Hex color",
			payload:        `{"hex":"#FF8000"}`,
			expectedStatus: fiber.StatusCreated,
			checkResponse: func(t *testing.T, body []byte) {
				var response SetLEDResponse
				if err := json.Unmarshal(body, &response); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if response.Command != "SET_COLOR:255,128,0" {
					t.Errorf("Expected command 'SET_COLOR:255,128,0', got '%s'", response.Command)
				}
			},
		},
		{name: "Channel out of range", payload: `{"rgb":[10,20,300]}`, expectedStatus: fiber.StatusBadRequest},
		{name: "Two channels", payload: `{"rgb":[10,20]}`, expectedStatus: fiber.StatusBadRequest},
		{name: "Both forms", payload: `{"rgb":[1,2,3],"hex":"#010203"}`, expectedStatus: fiber.StatusBadRequest},
		{name: "Bad hex", payload: `{"hex":"#12345"}`, expectedStatus: fiber.StatusBadRequest},
		{name: "Invalid JSON", payload: `invalid json`, expectedStatus: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, server := setupTestServer(t, nil)

			resp, body := postJSON(t, app, "/api/led", tt.payload)
			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response: %s", tt.expectedStatus, resp.StatusCode, string(body))
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, body)
			}

			if tt.expectedStatus == fiber.StatusBadRequest {
				count, err := server.Store.CountInstructions(context.Background(), "")
				require.NoError(t, err)
				assert.Zero(t, count, "a rejected color must not be queued")
			}
		})
	}
}

func TestGetLEDHandler(t *testing.T) {
	app, server := setupTestServer(t, nil)

	resp, _ := doRequest(t, app, "GET", "/api/led", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = postJSON(t, app, "/api/led", `{"hex":"0a0b0c"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, app, "GET", "/api/led", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var state LEDStateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, []int{10, 11, 12}, state.RGB)
	assert.Equal(t, "#0a0b0c", state.Hex)
	assert.Equal(t, "PENDING", state.Status)

	pending, err := server.Store.CountInstructions(context.Background(), db.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending, "reading the color must not deliver it")
}

func TestQueueCommandHandler(t *testing.T) {
	tests := []struct {
		name           string
		payload        string
		expectedStatus int
	}{
		{name: "Valid command", payload: `{"commande":"LED_ON"}`, expectedStatus: fiber.StatusCreated},
		{name: "Blank command", payload: `{"commande":"   "}`, expectedStatus: fiber.StatusBadRequest},
		{name: "Missing command", payload: `{}`, expectedStatus: fiber.StatusBadRequest},
		{name: "Wrong type", payload: `{"commande":42}`, expectedStatus: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestServer(t, nil)

			resp, body := postJSON(t, app, "/api/commande", tt.payload)
			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response: %s", tt.expectedStatus, resp.StatusCode, string(body))
			}
		})
	}
}

func TestQueueCommandMirrors(t *testing.T) {
	m := &recordingMirror{}
	app, server := setupTestServer(t, m)

	resp, body := postJSON(t, app, "/api/commande", `{"commande":"LED_OFF"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response QueueCommandResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.True(t, response.Mirrored)
	require.Len(t, m.commands, 1)
	assert.Equal(t, "LED_OFF", m.commands[0].Command)
	assert.Equal(t, response.ID, m.commands[0].ID)

	stored, err := server.Store.GetInstructionByID(context.Background(), response.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.CreatedAt.Equal(m.commands[0].CreatedAt), "mirrored timestamp must match the stored row")
}

func TestQueueCommandMirrorFailure(t *testing.T) {
	m := &recordingMirror{err: errBrokerDown}
	app, server := setupTestServer(t, m)

	resp, body := postJSON(t, app, "/api/led", `{"rgb":[1,2,3]}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var response SetLEDResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.False(t, response.Mirrored)

	inst, err := server.Store.GetInstructionByID(context.Background(), response.ID)
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, db.StatusPending, inst.Status)
}
