package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshEvent records the outcome of one sub-fetch of a refresh cycle
type RefreshEvent struct {
	ID           uuid.UUID      `json:"id"`
	CycleID      uuid.UUID      `json:"cycle_id"`
	Collection   CollectionName `json:"collection"`
	Success      bool           `json:"success"`
	Records      int            `json:"records"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Retryable    bool           `json:"retryable,omitempty"`
	Duration     time.Duration  `json:"duration"`
	Timestamp    time.Time      `json:"timestamp"`
}
