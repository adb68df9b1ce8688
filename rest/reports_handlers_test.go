package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
)

func TestGetReportsHandler(t *testing.T) {
	app, server := setupTestServer(t, nil)
	ctx := context.Background()

	if _, err := server.Store.EnqueueInstruction(ctx, "SET_COLOR:1,2,3", db.TypeColor); err != nil {
		t.Fatalf("Failed to create test instruction: %v", err)
	}
	if _, err := server.Store.EnqueueInstruction(ctx, "LED_ON", ""); err != nil {
		t.Fatalf("Failed to create test instruction: %v", err)
	}
	if _, err := server.Store.FetchPendingInstructions(ctx); err != nil {
		t.Fatalf("Failed to deliver test instructions: %v", err)
	}
	if _, err := server.Store.EnqueueInstruction(ctx, "SET_COLOR:4,5,6", db.TypeColor); err != nil {
		t.Fatalf("Failed to create test instruction: %v", err)
	}
	if _, err := server.Store.InsertReading(ctx, "temperature", 20, nil); err != nil {
		t.Fatalf("Failed to create test reading: %v", err)
	}

	tests := []struct {
		name           string
		queryParams    string
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:           "Missing start_date",
			queryParams:    "?end_date=2026-01-31T23:59:59Z",
			expectedStatus: fiber.StatusBadRequest,
			checkResponse:  nil,
		},
		{
			name:           "Missing end_date",
			queryParams:    "?start_date=2026-01-01T00:00:00Z",
			expectedStatus: fiber.StatusBadRequest,
			checkResponse:  nil,
		},
		{
			name:           "Invalid start_date format",
			queryParams:    "?start_date=invalid&end_date=2026-01-31T23:59:59Z",
			expectedStatus: fiber.StatusBadRequest,
			checkResponse:  nil,
		},
		{
			name:           "End before start",
			queryParams:    "?start_date=2026-02-01&end_date=2026-01-01",
			expectedStatus: fiber.StatusBadRequest,
			checkResponse:  nil,
		},
		{
			name:           "Invalid aggregation",
			queryParams:    "?start_date=2026-01-01T00:00:00Z&end_date=2026-01-31T23:59:59Z&aggregation=invalid",
			expectedStatus: fiber.StatusBadRequest,
			checkResponse:  nil,
		},
		{
			name:           "Valid request with simple date format",
			queryParams:    "?start_date=2020-01-01&end_date=2099-12-31&aggregation=monthly",
			expectedStatus: fiber.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response ReportResponse
				if err := json.Unmarshal(body, &response); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if response.Period.Aggregation != "monthly" {
					t.Errorf("Expected aggregation 'monthly', got '%s'", response.Period.Aggregation)
				}
				if response.Summary.Total != 3 {
					t.Errorf("Expected total 3, got %d", response.Summary.Total)
				}
			},
		},
		{
			name:           "Valid request with daily aggregation",
			queryParams:    "?start_date=2020-01-01T00:00:00Z&end_date=2099-12-31T23:59:59Z&aggregation=daily",
			expectedStatus: fiber.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response ReportResponse
				if err := json.Unmarshal(body, &response); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if response.Summary.Sent != 2 {
					t.Errorf("Expected sent 2, got %d", response.Summary.Sent)
				}
				if response.Summary.Pending != 1 {
					t.Errorf("Expected pending 1, got %d", response.Summary.Pending)
				}
				if len(response.ByType) != 2 {
					t.Errorf("Expected 2 types, got %d", len(response.ByType))
				}
				if len(response.Timeline) == 0 {
					t.Error("Expected a non-empty timeline")
				}
				if len(response.Readings) != 1 || response.Readings[0].Count != 1 {
					t.Errorf("Expected one temperature reading, got %+v", response.Readings)
				}
			},
		},
		{
			name:           "Valid request with type filter",
			queryParams:    "?start_date=2020-01-01T00:00:00Z&end_date=2099-12-31T23:59:59Z&type=COLOR",
			expectedStatus: fiber.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var response ReportResponse
				if err := json.Unmarshal(body, &response); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if response.Summary.Total != 2 {
					t.Errorf("Expected total 2, got %d", response.Summary.Total)
				}
				if len(response.ByType) != 1 {
					t.Errorf("Expected 1 type, got %d", len(response.ByType))
				}
				if len(response.ByType) > 0 && response.ByType[0].Type != "COLOR" {
					t.Errorf("Expected type 'COLOR', got '%s'", response.ByType[0].Type)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/reports"+tt.queryParams, nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("Failed to read response body: %v", err)
			}

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response: %s", tt.expectedStatus, resp.StatusCode, string(body))
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, body)
			}
		})
	}
}
