package debate

import "errors"

// Code is a stable error identifier sent to clients in error notifications.
type Code string

const (
	CodeInvalidTopic     Code = "INVALID_TOPIC"
	CodeInvalidRoomCode  Code = "INVALID_ROOM_CODE"
	CodeRoomNotFound     Code = "DEBATE_NOT_FOUND"
	CodeRoomFull         Code = "DEBATE_FULL"
	CodeNotInDebate      Code = "NOT_IN_DEBATE"
	CodeInvalidMessage   Code = "INVALID_MESSAGE"
	CodeInvalidSide      Code = "INVALID_SIDE"
	CodeDebateNotActive  Code = "DEBATE_NOT_ACTIVE"
	CodeNotYourTurn      Code = "NOT_YOUR_TURN"
	CodeNoArgumentsLeft  Code = "NO_ARGUMENTS_LEFT"
	CodeInvalidTopicSide Code = "INVALID_TOPIC_SIDE"
	CodeInvalidSeat      Code = "INVALID_SEAT_TOKEN"
	CodeInvalidCommand   Code = "INVALID_COMMAND"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Error is a rule violation local to one inbound event. It never reaches other rooms.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotYourTurn) works on wrapped copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

var (
	ErrInvalidTopic     = newError(CodeInvalidTopic, "Topic is required and cannot be empty")
	ErrInvalidRoomCode  = newError(CodeInvalidRoomCode, "Room code is required")
	ErrRoomNotFound     = newError(CodeRoomNotFound, "Debate room not found")
	ErrRoomFull         = newError(CodeRoomFull, "Debate room is already full")
	ErrNotInDebate      = newError(CodeNotInDebate, "You must join a debate before sending messages")
	ErrInvalidMessage   = newError(CodeInvalidMessage, "Message content is required and cannot be empty")
	ErrMessageTooLong   = newError(CodeInvalidMessage, "Message content is too long")
	ErrInvalidSide      = newError(CodeInvalidSide, "Invalid debate side")
	ErrDebateNotActive  = newError(CodeDebateNotActive, "Debate is not active")
	ErrNotYourTurn      = newError(CodeNotYourTurn, "You cannot send a message when it is not your turn")
	ErrNoArgumentsLeft  = newError(CodeNoArgumentsLeft, "You have no arguments remaining")
	ErrInvalidTopicSide = newError(CodeInvalidTopicSide, "Invalid topic side choice")
	ErrSelectionClosed  = newError(CodeDebateNotActive, "Side selection is not open for this debate")
	ErrInvalidSeat      = newError(CodeInvalidSeat, "Seat token is invalid or expired")
	ErrInvalidCommand   = newError(CodeInvalidCommand, "Unknown or malformed command")
)

// CodeOf extracts the client-facing code of err, falling back to INTERNAL_ERROR.
func CodeOf(err error) (Code, string) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, de.Message
	}
	return CodeInternal, "Internal server error"
}
