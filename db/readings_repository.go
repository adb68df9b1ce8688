package db

import (
	"context"
)

const DefaultRecentReadings = 10

// InsertReading appends a reading. textValue is nil for numeric readings.
func (s *Store) InsertReading(ctx context.Context, readingType string, value float64, textValue *string) (*Reading, error) {
	query := `
		INSERT INTO sensor_readings (type, value, text_value, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	reading := &Reading{
		Type:      readingType,
		Value:     value,
		TextValue: textValue,
		CreatedAt: now(),
	}

	err := s.db.QueryRowContext(ctx, query,
		reading.Type,
		reading.Value,
		reading.TextValue,
		reading.CreatedAt,
	).Scan(&reading.ID)
	if err != nil {
		return nil, storageError("insert reading", err)
	}

	return reading, nil
}

// RecentReadings returns the newest readings first.
func (s *Store) RecentReadings(ctx context.Context, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = DefaultRecentReadings
	}

	query := `
		SELECT id, type, value, text_value, created_at
		FROM sensor_readings
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storageError("query recent readings", err)
	}
	defer rows.Close()

	readings := []Reading{}
	for rows.Next() {
		var r Reading
		if err := rows.Scan(
			&r.ID,
			&r.Type,
			&r.Value,
			&r.TextValue,
			timestamp{&r.CreatedAt},
		); err != nil {
			return nil, storageError("scan reading", err)
		}
		readings = append(readings, r)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError("iterate readings", err)
	}

	return readings, nil
}
