package db

import (
	"time"
)

type InstructionStatus string

const (
	StatusPending InstructionStatus = "PENDING"
	StatusSent    InstructionStatus = "SENT"
)

// TypeColor tags instructions carrying a SET_COLOR directive.
const TypeColor = "COLOR"

type Reading struct {
	ID        int64
	Type      string
	Value     float64
	TextValue *string
	CreatedAt time.Time
}

type Instruction struct {
	ID        int64
	Command   string
	Type      string
	Status    InstructionStatus
	CreatedAt time.Time
}

type SchemaMigration struct {
	Version   int
	AppliedAt time.Time
}

// now is the insert timestamp: UTC with seconds resolution.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
