package rest

import "time"

// InstructionPayload is what the device poller reads. The command field keeps the name
// "commande" expected by deployed clients.
type InstructionPayload struct {
	ID        int64     `json:"id"`
	Commande  string    `json:"commande"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type PollResponse struct {
	Instructions []InstructionPayload `json:"instructions"`
}

type QueueCommandRequest struct {
	Commande string `json:"commande"`
}

type QueueCommandResponse struct {
	Success  bool  `json:"success"`
	ID       int64 `json:"id"`
	Mirrored bool  `json:"mirrored"`
}

type SetLEDRequest struct {
	RGB []int  `json:"rgb,omitempty"`
	Hex string `json:"hex,omitempty"`
}

type SetLEDResponse struct {
	Success  bool   `json:"success"`
	RGB      []int  `json:"rgb"`
	Command  string `json:"command"`
	ID       int64  `json:"id"`
	Mirrored bool   `json:"mirrored"`
}

type LEDStateResponse struct {
	RGB       []int     `json:"rgb"`
	Hex       string    `json:"hex"`
	Command   string    `json:"command"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type MirrorCommandRequest struct {
	Command string `json:"command"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
