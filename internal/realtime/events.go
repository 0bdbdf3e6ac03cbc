package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Event is a lifecycle notification fanned out to interested consumers
// (dashboards, ingestion workers waiting on status moves).
type Event struct {
	Entity   string    `json:"entity"`
	EntityID uuid.UUID `json:"entity_id"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to"`
	At       time.Time `json:"at"`
}

func NewTransition(entity string, entityID uuid.UUID, from, to string) Event {
	return Event{
		Entity:   entity,
		EntityID: entityID,
		From:     from,
		To:       to,
		At:       time.Now().UTC(),
	}
}
