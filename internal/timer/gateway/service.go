package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vlasebian/timerbe/internal/models"
	"github.com/vlasebian/timerbe/internal/timer"
)

// TimerApp defines what the gateway needs from the timer application.
type TimerApp interface {
	GetTimer(ctx context.Context, event string) (*models.Timer, error)
	SetTimer(ctx context.Context, event string, dur models.Duration) (*models.Timer, error)
	StartTimer(ctx context.Context, event string) (*models.Timer, error)
	PauseTimer(ctx context.Context, event string) (*models.Timer, error)
	StopTimer(ctx context.Context, event string) (*models.Timer, error)
}

// Dispatcher delivers outbound messages to connected clients. Implemented by
// the ConnectionManager.
type Dispatcher interface {
	Broadcast(msg *ServerMessage)
	Reply(conn *Connection, msg *ServerMessage)
}

// ResultPublisher fans successful timer results out to other gateway
// instances.
type ResultPublisher interface {
	PublishTimer(event string, payload TimerPayload) error
}

// DeliveryPolicy decides who receives successful timer results. Errors always
// go only to the requester.
type DeliveryPolicy string

const (
	// PolicyReply delivers results only to the requesting connection.
	PolicyReply DeliveryPolicy = "reply"
	// PolicyBroadcast delivers results to every connected client.
	PolicyBroadcast DeliveryPolicy = "broadcast"
)

// Valid reports whether the policy is a known delivery mode.
func (p DeliveryPolicy) Valid() bool {
	return p == PolicyReply || p == PolicyBroadcast
}

// Service routes inbound client requests to the timer app and dispatches the
// results according to the delivery policy.
type Service struct {
	app       TimerApp
	dispatch  Dispatcher
	policy    DeliveryPolicy
	publisher ResultPublisher // optional
}

// NewService creates a new gateway service. publisher may be nil when
// cross-instance fan-out is disabled.
func NewService(app TimerApp, dispatch Dispatcher, policy DeliveryPolicy, publisher ResultPublisher) *Service {
	return &Service{
		app:       app,
		dispatch:  dispatch,
		policy:    policy,
		publisher: publisher,
	}
}

// Verify that Service implements the MessageHandler interface
var _ MessageHandler = (*Service)(nil)

// HandleMessage processes one inbound client message.
func (s *Service) HandleMessage(ctx context.Context, conn *Connection, data []byte) {
	var req ClientRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", conn.ID).
			Msg("malformed client message")
		s.dispatch.Reply(conn, NewErrorMessage("", ReasonBadRequest))
		return
	}

	if req.Event == "" {
		s.dispatch.Reply(conn, NewErrorMessage("", ReasonBadRequest))
		return
	}
	if !req.Action.Valid() {
		s.dispatch.Reply(conn, NewErrorMessage(req.Event, ReasonUnknownAction))
		return
	}

	result, err := s.invoke(ctx, req)
	if err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", conn.ID).
			Str("action", string(req.Action)).
			Str("event", req.Event).
			Msg("timer operation rejected")
		s.dispatch.Reply(conn, NewErrorMessage(req.Event, ErrorReason(err)))
		return
	}

	msg := NewTimerMessage(result)

	switch s.policy {
	case PolicyBroadcast:
		s.dispatch.Broadcast(msg)
	default:
		s.dispatch.Reply(conn, msg)
	}

	// Reads stay local; only state changes are fanned out to other instances.
	if s.publisher != nil && req.Action != ActionGet {
		if err := s.publisher.PublishTimer(result.Event, *msg.Data); err != nil {
			log.Error().
				Err(err).
				Str("event", result.Event).
				Msg("failed to publish timer result")
		}
	}
}

// invoke calls the timer app operation matching the request.
func (s *Service) invoke(ctx context.Context, req ClientRequest) (*models.Timer, error) {
	switch req.Action {
	case ActionGet:
		return s.app.GetTimer(ctx, req.Event)
	case ActionSet:
		if req.Duration == nil {
			return nil, timer.ErrInvalidDuration
		}
		return s.app.SetTimer(ctx, req.Event, *req.Duration)
	case ActionStart:
		return s.app.StartTimer(ctx, req.Event)
	case ActionPause:
		return s.app.PauseTimer(ctx, req.Event)
	case ActionStop:
		return s.app.StopTimer(ctx, req.Event)
	default:
		return nil, errors.New("unknown action")
	}
}

// Wire reason strings for the err message.
const (
	ReasonBadRequest      = "bad request"
	ReasonUnknownAction   = "unknown action"
	ReasonNotFound        = "timer not found"
	ReasonInvalidDuration = "invalid duration"
	ReasonSetConflict     = "set conflict"
	ReasonStartConflict   = "start conflict"
	ReasonPauseConflict   = "pause conflict"
	ReasonStopConflict    = "stop conflict"
	ReasonStoreFailure    = "store failure"
	ReasonInternal        = "internal error"
)

// ErrorReason maps an engine error to its wire reason string.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, timer.ErrTimerNotFound):
		return ReasonNotFound
	case errors.Is(err, timer.ErrInvalidDuration):
		return ReasonInvalidDuration
	case errors.Is(err, timer.ErrSetConflict):
		return ReasonSetConflict
	case errors.Is(err, timer.ErrStartConflict):
		return ReasonStartConflict
	case errors.Is(err, timer.ErrPauseConflict):
		return ReasonPauseConflict
	case errors.Is(err, timer.ErrStopConflict):
		return ReasonStopConflict
	case errors.Is(err, timer.ErrStoreFailure):
		return ReasonStoreFailure
	default:
		return ReasonInternal
	}
}
