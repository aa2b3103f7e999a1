package eventhub

import "civicdesk/backend/internal/models"

// Subscriber identifies who is listening on a connection.
type Subscriber struct {
	UserID string
	Role   models.Role
}

// Client is one live connection registered with the hub.
type Client interface {
	// Subscriber decides which events the client receives.
	Subscriber() Subscriber
	// SendChannel is written to by the hub only.
	SendChannel() chan<- models.ComplaintEvent
	// Run starts the client's pumps.
	Run()
	// Close stops the write pump. The hub calls it once, after removing the client.
	Close()
}

// Wants reports whether an event is visible to the subscriber. Officers see
// everything, workers see their actionable statuses, citizens their own complaints.
func Wants(sub Subscriber, ev models.ComplaintEvent) bool {
	switch sub.Role {
	case models.RoleOfficer:
		return true
	case models.RoleWorker:
		return ev.Status == models.StatusOngoing || ev.Status == models.StatusClosed
	case models.RoleCitizen:
		return ev.ReporterID != "" && ev.ReporterID == sub.UserID
	default:
		return false
	}
}
