package models

import "time"

// Event types pushed to live dashboards.
const (
	EventComplaintCreated = "complaint_created"
	EventStatusChanged    = "status_changed"
)

// ComplaintEvent describes a change to a complaint. It travels through Redis
// between API replicas and is written as JSON to websocket clients.
type ComplaintEvent struct {
	Type        string    `json:"type"`
	ComplaintID string    `json:"complaint_id"`
	ReporterID  string    `json:"reporter_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	From        Status    `json:"from,omitempty"`
	Status      Status    `json:"status"`
	Category    Category  `json:"category"`
	Urgency     float64   `json:"urgency_score"`
	At          time.Time `json:"at"`
}
