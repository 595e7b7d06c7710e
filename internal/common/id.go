package common

import (
	"github.com/google/uuid"
)

// NewHistoryID generates a unique history item ID with the "hist_" prefix
// Format: hist_<uuid>
func NewHistoryID() string {
	return "hist_" + uuid.New().String()
}

// NewSessionID generates a unique visitor session ID with the "sess_" prefix
func NewSessionID() string {
	return "sess_" + uuid.New().String()
}
