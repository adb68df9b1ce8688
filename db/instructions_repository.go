package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// EnqueueInstruction stores a PENDING instruction and returns the row as written. The
// command text is opaque here; callers validate it.
func (s *Store) EnqueueInstruction(ctx context.Context, command, typeTag string) (*Instruction, error) {
	query := `
		INSERT INTO instructions (command, type, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, command, type, status, created_at
	`

	inst := &Instruction{}
	err := s.db.QueryRowContext(ctx, query, command, typeTag, string(StatusPending), now()).Scan(
		&inst.ID,
		&inst.Command,
		&inst.Type,
		&inst.Status,
		timestamp{&inst.CreatedAt},
	)
	if err != nil {
		return nil, storageError("enqueue instruction", err)
	}

	return inst, nil
}

// FetchPendingInstructions returns every PENDING instruction in creation order and marks
// them SENT in the same statement. Row locks (PostgreSQL) or the single writer (SQLite)
// keep concurrent pollers from receiving the same row. The returned rows carry the SENT
// status. A device that crashes after this call loses the commands it received.
func (s *Store) FetchPendingInstructions(ctx context.Context) ([]Instruction, error) {
	query := `
		UPDATE instructions
		SET status = $1
		WHERE status = $2
		RETURNING id, command, type, status, created_at
	`

	rows, err := s.db.QueryContext(ctx, query, string(StatusSent), string(StatusPending))
	if err != nil {
		return nil, storageError("fetch pending instructions", err)
	}
	defer rows.Close()

	instructions := []Instruction{}
	for rows.Next() {
		var inst Instruction
		if err := rows.Scan(
			&inst.ID,
			&inst.Command,
			&inst.Type,
			&inst.Status,
			timestamp{&inst.CreatedAt},
		); err != nil {
			return nil, storageError("scan instruction", err)
		}
		instructions = append(instructions, inst)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError("iterate instructions", err)
	}

	// RETURNING has no defined order; ids grow with insertion.
	sort.Slice(instructions, func(i, j int) bool {
		return instructions[i].ID < instructions[j].ID
	})

	return instructions, nil
}

// PeekLatestInstruction returns the most recent instruction with the given type, or nil
// when there is none. Status is left untouched.
func (s *Store) PeekLatestInstruction(ctx context.Context, typeTag string) (*Instruction, error) {
	query := `
		SELECT id, command, type, status, created_at
		FROM instructions
		WHERE type = $1
		ORDER BY id DESC
		LIMIT 1
	`

	inst := &Instruction{}
	err := s.db.QueryRowContext(ctx, query, typeTag).Scan(
		&inst.ID,
		&inst.Command,
		&inst.Type,
		&inst.Status,
		timestamp{&inst.CreatedAt},
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, storageError("peek latest instruction", err)
	}

	return inst, nil
}

// GetInstructionByID returns the instruction with the given id, or nil when it does not
// exist.
func (s *Store) GetInstructionByID(ctx context.Context, id int64) (*Instruction, error) {
	query := `
		SELECT id, command, type, status, created_at
		FROM instructions
		WHERE id = $1
	`

	inst := &Instruction{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&inst.ID,
		&inst.Command,
		&inst.Type,
		&inst.Status,
		timestamp{&inst.CreatedAt},
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, storageError(fmt.Sprintf("get instruction %d", id), err)
	}

	return inst, nil
}

// CountInstructions counts instructions in the given status. An empty status counts all.
func (s *Store) CountInstructions(ctx context.Context, status InstructionStatus) (int, error) {
	query := "SELECT COUNT(*) FROM instructions"
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, storageError("count instructions", err)
	}

	return count, nil
}
