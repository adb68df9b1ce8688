package rest

import "time"

type ReportPeriod struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Aggregation string    `json:"aggregation"`
}

type ReportSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Pending int `json:"pending"`
}

type TypeStats struct {
	Type    string `json:"type"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Pending int    `json:"pending"`
}

type TimelineEntry struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Pending int    `json:"pending"`
}

type ReadingStats struct {
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type ReportResponse struct {
	Period   ReportPeriod    `json:"period"`
	Summary  ReportSummary   `json:"summary"`
	ByType   []TypeStats     `json:"by_type"`
	Timeline []TimelineEntry `json:"timeline"`
	Readings []ReadingStats  `json:"readings"`
}
