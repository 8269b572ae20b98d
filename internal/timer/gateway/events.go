package gateway

import (
	"time"

	"github.com/vlasebian/timerbe/internal/models"
)

// Action is the operation a client requests for an event's timer.
type Action string

const (
	ActionGet   Action = "get"
	ActionSet   Action = "set"
	ActionStart Action = "start"
	ActionPause Action = "pause"
	ActionStop  Action = "stop"
)

// Valid reports whether the action is one of the supported operations.
func (a Action) Valid() bool {
	switch a {
	case ActionGet, ActionSet, ActionStart, ActionPause, ActionStop:
		return true
	}
	return false
}

// ClientRequest is the inbound WebSocket message. Duration is only read for
// the set action.
type ClientRequest struct {
	Action   Action           `json:"action"`
	Event    string           `json:"event"`
	Duration *models.Duration `json:"duration,omitempty"`
}

// MessageType tags outbound WebSocket messages.
type MessageType string

const (
	MessageTypeTimer MessageType = "timer"
	MessageTypeError MessageType = "err"
)

// TimerPayload is the notification body for a successful operation.
type TimerPayload struct {
	State   models.TimerState `json:"state"`
	EndDate *time.Time        `json:"end_date,omitempty"`
}

// ServerMessage is the outbound WebSocket envelope. Data is set on timer
// messages, Error on err messages.
type ServerMessage struct {
	Type  MessageType   `json:"type"`
	Event string        `json:"event"`
	Data  *TimerPayload `json:"data,omitempty"`
	Error string        `json:"error,omitempty"`
}

// NewTimerMessage builds the success notification for a timer record.
func NewTimerMessage(t *models.Timer) *ServerMessage {
	return &ServerMessage{
		Type:  MessageTypeTimer,
		Event: t.Event,
		Data: &TimerPayload{
			State:   t.State,
			EndDate: t.EndDate,
		},
	}
}

// NewErrorMessage builds the failure notification for an event.
func NewErrorMessage(event, reason string) *ServerMessage {
	return &ServerMessage{
		Type:  MessageTypeError,
		Event: event,
		Error: reason,
	}
}

// RemoteTimerEvent is the NATS fan-out envelope carrying a timer result from
// one gateway instance to the others.
type RemoteTimerEvent struct {
	OriginID    string       `json:"origin_id"`
	Event       string       `json:"event"`
	Data        TimerPayload `json:"data"`
	PublishedAt time.Time    `json:"published_at"`
}
