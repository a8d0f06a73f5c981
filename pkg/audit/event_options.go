package audit

// EventOption applies configuration to an Event during Record.
type EventOption func(*Event)

// WithPhase sets the migration phase current when the event was emitted
func WithPhase(phase string) EventOption {
	return func(e *Event) {
		e.Phase = phase
	}
}

// WithSessionID sets the session the event was emitted for
func WithSessionID(id string) EventOption {
	return func(e *Event) {
		e.SessionID = id
	}
}

// WithPayload adds a key to the event payload
func WithPayload(key string, value any) EventOption {
	return func(e *Event) {
		if e.Payload == nil {
			e.Payload = make(map[string]any)
		}
		e.Payload[key] = value
	}
}
