package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PricesSyncedData contains data for PricesSynced events
type PricesSyncedData struct {
	Symbols int `json:"symbols"`
	Rows    int `json:"rows"`
}

// EventType returns the event type for PricesSyncedData
func (d *PricesSyncedData) EventType() EventType {
	return PricesSynced
}

// RebalanceStartedData contains data for RebalanceStarted events
type RebalanceStartedData struct {
	RunID   string `json:"run_id"`
	Trigger string `json:"trigger"`
}

// EventType returns the event type for RebalanceStartedData
func (d *RebalanceStartedData) EventType() EventType {
	return RebalanceStarted
}

// RebalanceCompletedData contains data for RebalanceCompleted events
type RebalanceCompletedData struct {
	RunID      string             `json:"run_id"`
	Trigger    string             `json:"trigger"`
	Winner     string             `json:"winner"`
	Weight     float64            `json:"weight"`
	CashWeight float64            `json:"cash_weight"`
	RiskOff    bool               `json:"risk_off"`
	Allocation map[string]float64 `json:"allocation"`
	Eligible   []string           `json:"eligible"`
}

// EventType returns the event type for RebalanceCompletedData
func (d *RebalanceCompletedData) EventType() EventType {
	return RebalanceCompleted
}

// RebalanceSkippedData contains data for RebalanceSkipped events
type RebalanceSkippedData struct {
	Trigger   string `json:"trigger"`
	Reason    string `json:"reason"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

// EventType returns the event type for RebalanceSkippedData
func (d *RebalanceSkippedData) EventType() EventType {
	return RebalanceSkipped
}

// RebalanceFailedData contains data for RebalanceFailed events
type RebalanceFailedData struct {
	RunID   string `json:"run_id"`
	Trigger string `json:"trigger"`
	Stage   string `json:"stage"`
	Error   string `json:"error"`
}

// EventType returns the event type for RebalanceFailedData
func (d *RebalanceFailedData) EventType() EventType {
	return RebalanceFailed
}

// PositionsChangedData contains data for PositionsChanged events
type PositionsChangedData struct {
	Executor string `json:"executor"`
	Orders   int    `json:"orders"`
}

// EventType returns the event type for PositionsChangedData
func (d *PositionsChangedData) EventType() EventType {
	return PositionsChanged
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key   string `json:"key"`
	Bytes int64  `json:"bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
