package room

import (
	"time"

	"github.com/jason-s-yu/argumentor/internal/debate"
	"github.com/jason-s-yu/argumentor/internal/models"
)

// Outbound event types.
const (
	EventDebateCreated    = "debate_created"
	EventDebateJoined     = "debate_joined"
	EventDebateInfo       = "debate_info"
	EventDebateStarted    = "debate_started"
	EventArgumentsUpdated = "arguments_updated"
	EventTurnUpdated      = "turn_updated"
	EventMessageSent      = "message_sent"
	EventNewMessage       = "new_message"
	EventDebateEnded      = "debate_ended"
	EventEvaluationReady  = "evaluation_ready"
	EventDebateLeft       = "debate_left"
	EventPong             = "pong"
	EventError            = "error"
)

// Event is one outbound message: {"type": ..., "payload": {...}}.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type debatePayload struct {
	Debate models.Debate `json:"debate"`
}

type createdPayload struct {
	RoomCode  string        `json:"roomCode"`
	Debate    models.Debate `json:"debate"`
	SeatToken string        `json:"seatToken"`
}

type joinedPayload struct {
	Side      models.Side   `json:"side"`
	Debate    models.Debate `json:"debate"`
	SeatToken string        `json:"seatToken"`
}

type argumentsPayload struct {
	ArgumentsRemainingA int `json:"argumentsRemainingA"`
	ArgumentsRemainingB int `json:"argumentsRemainingB"`
}

type turnPayload struct {
	CurrentTurn *models.Side `json:"currentTurn"`
	TurnEndsAt  *time.Time   `json:"turnEndsAt"`
}

type messageSentPayload struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

type newMessagePayload struct {
	Message models.Message `json:"message"`
}

type evaluationPayload struct {
	Evaluation models.Evaluation `json:"evaluation"`
}

type leftPayload struct {
	RoomCode string `json:"roomCode"`
}

// ErrorPayload is the body of every error event.
type ErrorPayload struct {
	Code    debate.Code `json:"code"`
	Message string      `json:"message"`
}

func debateEvent(typ string, d models.Debate) Event {
	return Event{Type: typ, Payload: debatePayload{Debate: d}}
}

func argumentsEvent(d models.Debate) Event {
	return Event{Type: EventArgumentsUpdated, Payload: argumentsPayload{
		ArgumentsRemainingA: d.ArgumentsRemainingA,
		ArgumentsRemainingB: d.ArgumentsRemainingB,
	}}
}

func turnEvent(d models.Debate) Event {
	return Event{Type: EventTurnUpdated, Payload: turnPayload{CurrentTurn: d.CurrentTurn, TurnEndsAt: d.TurnEndsAt}}
}

// ErrorEvent maps err to its stable code. Unknown errors become INTERNAL_ERROR.
func ErrorEvent(err error) Event {
	code, msg := debate.CodeOf(err)
	return Event{Type: EventError, Payload: ErrorPayload{Code: code, Message: msg}}
}
