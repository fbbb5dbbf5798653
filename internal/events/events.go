package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "session-service"
	EventVersion = "1.0"
)

type EventType string

const (
	SessionStarted   EventType = "session.started"
	SessionCompleted EventType = "session.completed"
	SessionDeleted   EventType = "session.deleted"
	SessionRescored  EventType = "session.rescored"
)

// Event is the envelope every published message carries
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// SessionEventData is the payload of every session event
type SessionEventData struct {
	SessionID        uint       `json:"session_id"`
	TestID           uint       `json:"test_id"`
	StudentID        string     `json:"student_id"`
	StartedAt        time.Time  `json:"started_at"`
	AutoFinishAt     *time.Time `json:"auto_finish_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	Score            float64    `json:"score"`
	MaxScore         float64    `json:"max_score"`
	Scored           bool       `json:"scored"`
	RewardExperience float64    `json:"reward_experience"`
	RewardCoins      int        `json:"reward_coins"`
}

// EventPublisher publishes domain events. Publishing happens after the owning
// transaction commits; a failure is reported but does not undo the change.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
