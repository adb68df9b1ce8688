package rest

import "time"

// CreateReadingRequest documents the body of POST /api/capteur. valeur may be a string, a
// number or a boolean.
type CreateReadingRequest struct {
	Type   string      `json:"type"`
	Valeur interface{} `json:"valeur"`
}

type CreateReadingResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ID       int64  `json:"id"`
	Mirrored bool   `json:"mirrored"`
}

type ReadingDetail struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	TextValue *string   `json:"text_value,omitempty"`
	Display   string    `json:"display"`
	CreatedAt time.Time `json:"created_at"`
}

type ReadingsListResponse struct {
	Readings []ReadingDetail `json:"readings"`
}
