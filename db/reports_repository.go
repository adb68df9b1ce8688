package db

import (
	"context"
	"fmt"
	"time"
)

type ReportSummary struct {
	Total   int
	Sent    int
	Pending int
}

type TypeStats struct {
	Type    string
	Total   int
	Sent    int
	Pending int
}

type TimelineEntry struct {
	Date    string
	Total   int
	Sent    int
	Pending int
}

type ReadingTypeStats struct {
	Type    string
	Count   int
	Average float64
	Min     float64
	Max     float64
}

const statusCounts = `
	COUNT(*) as total,
	COALESCE(SUM(CASE WHEN status = 'SENT' THEN 1 ELSE 0 END), 0) as sent,
	COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0) as pending
`

func (s *Store) GetReportSummary(ctx context.Context, startDate, endDate time.Time, typeTag string) (*ReportSummary, error) {
	query := `SELECT ` + statusCounts + `
		FROM instructions
		WHERE created_at >= $1 AND created_at <= $2
	`
	args := []interface{}{startDate.UTC(), endDate.UTC()}

	if typeTag != "" {
		query += " AND type = $3"
		args = append(args, typeTag)
	}

	summary := &ReportSummary{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.Total,
		&summary.Sent,
		&summary.Pending,
	)

	if err != nil {
		return nil, storageError("report summary", err)
	}

	return summary, nil
}

func (s *Store) GetTypeStats(ctx context.Context, startDate, endDate time.Time, typeFilter string) ([]TypeStats, error) {
	query := `SELECT type, ` + statusCounts + `
		FROM instructions
		WHERE created_at >= $1 AND created_at <= $2
	`
	args := []interface{}{startDate.UTC(), endDate.UTC()}

	if typeFilter != "" {
		query += " AND type = $3"
		args = append(args, typeFilter)
	}

	query += " GROUP BY type ORDER BY type"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query type stats", err)
	}
	defer rows.Close()

	stats := []TypeStats{}
	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(
			&ts.Type,
			&ts.Total,
			&ts.Sent,
			&ts.Pending,
		); err != nil {
			return nil, storageError("scan type stats", err)
		}
		stats = append(stats, ts)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError("iterate type stats", err)
	}

	return stats, nil
}

func (s *Store) GetTimelineStats(ctx context.Context, startDate, endDate time.Time, aggregation string, typeTag string) ([]TimelineEntry, error) {
	var query string
	args := []interface{}{startDate.UTC(), endDate.UTC()}

	if s.IsSQLite() {
		var dateFormat string
		switch aggregation {
		case "weekly":
			dateFormat = "%Y-%W"
		case "monthly":
			dateFormat = "%Y-%m"
		default:
			dateFormat = "%Y-%m-%d"
		}

		bucket := fmt.Sprintf("strftime('%s', substr(created_at, 1, 19))", dateFormat)
		query = `SELECT ` + bucket + ` as date, ` + statusCounts + `
			FROM instructions
			WHERE created_at >= $1 AND created_at <= $2
		`

		if typeTag != "" {
			query += " AND type = $3"
			args = append(args, typeTag)
		}

		query += " GROUP BY " + bucket + " ORDER BY " + bucket
	} else {
		var dateFormat string
		var dateTrunc string

		switch aggregation {
		case "weekly":
			dateFormat = "IYYY-IW"
			dateTrunc = "week"
		case "monthly":
			dateFormat = "YYYY-MM"
			dateTrunc = "month"
		default:
			dateFormat = "YYYY-MM-DD"
			dateTrunc = "day"
		}

		query = fmt.Sprintf(`SELECT TO_CHAR(DATE_TRUNC('%s', created_at), '%s') as date, `, dateTrunc, dateFormat) +
			statusCounts + `
			FROM instructions
			WHERE created_at >= $1 AND created_at <= $2
		`

		if typeTag != "" {
			query += " AND type = $3"
			args = append(args, typeTag)
		}

		query += fmt.Sprintf(" GROUP BY DATE_TRUNC('%s', created_at) ORDER BY DATE_TRUNC('%s', created_at)", dateTrunc, dateTrunc)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query timeline stats", err)
	}
	defer rows.Close()

	timeline := []TimelineEntry{}
	for rows.Next() {
		var entry TimelineEntry
		if err := rows.Scan(
			&entry.Date,
			&entry.Total,
			&entry.Sent,
			&entry.Pending,
		); err != nil {
			return nil, storageError("scan timeline entry", err)
		}
		timeline = append(timeline, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError("iterate timeline", err)
	}

	return timeline, nil
}

// GetReadingStats aggregates numeric readings per type. Text readings count but do not
// move the average.
func (s *Store) GetReadingStats(ctx context.Context, startDate, endDate time.Time) ([]ReadingTypeStats, error) {
	query := `
		SELECT
			type,
			COUNT(*) as total,
			COALESCE(AVG(CASE WHEN text_value IS NULL THEN value END), 0) as average,
			COALESCE(MIN(CASE WHEN text_value IS NULL THEN value END), 0) as minimum,
			COALESCE(MAX(CASE WHEN text_value IS NULL THEN value END), 0) as maximum
		FROM sensor_readings
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY type
		ORDER BY type
	`

	rows, err := s.db.QueryContext(ctx, query, startDate.UTC(), endDate.UTC())
	if err != nil {
		return nil, storageError("query reading stats", err)
	}
	defer rows.Close()

	stats := []ReadingTypeStats{}
	for rows.Next() {
		var rs ReadingTypeStats
		if err := rows.Scan(
			&rs.Type,
			&rs.Count,
			&rs.Average,
			&rs.Min,
			&rs.Max,
		); err != nil {
			return nil, storageError("scan reading stats", err)
		}
		stats = append(stats, rs)
	}

	if err = rows.Err(); err != nil {
		return nil, storageError("iterate reading stats", err)
	}

	return stats, nil
}
