// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	PricesSynced       EventType = "PRICES_SYNCED"
	RebalanceStarted   EventType = "REBALANCE_STARTED"
	RebalanceCompleted EventType = "REBALANCE_COMPLETED"
	RebalanceSkipped   EventType = "REBALANCE_SKIPPED"
	RebalanceFailed    EventType = "REBALANCE_FAILED"
	PositionsChanged   EventType = "POSITIONS_CHANGED"
	BackupCompleted    EventType = "BACKUP_COMPLETED"
	ErrorOccurred      EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every type the bus can carry
var AllEventTypes = []EventType{
	PricesSynced,
	RebalanceStarted,
	RebalanceCompleted,
	RebalanceSkipped,
	RebalanceFailed,
	PositionsChanged,
	BackupCompleted,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
