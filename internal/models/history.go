package models

import "time"

// HistoryItem pairs an analysis request with its result
type HistoryItem struct {
	ID        string         `json:"id" badgerhold:"key"`
	Timestamp time.Time      `json:"timestamp" badgerhold:"index"`
	Prompt    string         `json:"prompt"`
	FileName  string         `json:"file_name,omitempty"`
	Result    AnalysisResult `json:"result"`
}
