// Package schema defines universal data structures used across the Vitalix platform.
package schema

import "time"

// Record is a caller's last permitted BMI submission.
// Exactly one record exists per owner; a new submission overwrites the
// previous one but keeps its ID.
type Record struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Weight    float64   `json:"weight"`
	Height    float64   `json:"height"`
	BMI       float64   `json:"bmi"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is a registered display name for an owner identity.
type Profile struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLog represents a standardized event log entry for a mutating operation.
type AuditLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}
