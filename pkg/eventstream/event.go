package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn finishes.
	EventTypeTurnCompleted = "ragbot.turn.completed"
)

// TurnCompletedEvent is a transport-neutral payload describing one
// completed chat turn.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// TurnMeta captures the outcome of the turn. Query and answer text stay
// out of the event; only shape and routing metadata are published.
type TurnMeta struct {
	Route          string `json:"route"`
	RouteFallback  bool   `json:"route_fallback"`
	AnswerFallback bool   `json:"answer_fallback"`
	Citations      int    `json:"citations"`
	ChunksUsed     int    `json:"chunks_used"`
	MemoryUpdated  bool   `json:"memory_updated"`
	DurationMs     int64  `json:"duration_ms"`
}

// NewTurnCompletedEvent builds a v1 event with a fresh ID and timestamp.
func NewTurnCompletedEvent(source EventSource, turn TurnMeta) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
	}
}
