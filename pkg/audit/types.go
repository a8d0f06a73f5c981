package audit

import (
	"context"
	"fmt"
	"time"
)

// Event represents a single audit log entry.
type Event struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Name      string         `json:"name"`
	Phase     string         `json:"phase"`
	SessionID string         `json:"session_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", ErrEventValidation)
	}
	return nil
}

// Sink persists audit events in append order.
type Sink interface {
	// Append stores a single event after all previously appended events.
	Append(ctx context.Context, event Event) error

	// ReadAll returns every stored event, oldest first.
	ReadAll(ctx context.Context) ([]Event, error)

	// Clear removes every stored event.
	Clear(ctx context.Context) error
}

// Trimmer is implemented by sinks that can drop all but the newest keep events natively.
type Trimmer interface {
	Trim(ctx context.Context, keep int) error
}
