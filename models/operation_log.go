package models

import "time"

// Operation is the audited action kind.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationRead   Operation = "READ"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// OperationLog is one audit row. Services write a row for every mutation and
// for searches.
type OperationLog struct {
	LogID  int64 `json:"-"`
	UserID int64 `json:"-"`

	Operation Operation `json:"operation"`

	// TargetTable names the affected table.
	TargetTable string `json:"target_table"`

	// TargetID is the primary key of the affected row, when applicable.
	TargetID string `json:"target_id,omitempty"`

	// Description is a short free-form note (e.g. the search keyword).
	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the OperationLog model.
func (o OperationLog) TableName() string {
	return "operation_logs"
}
