package room

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/argumentor/internal/debate"
)

// Inbound command types.
const (
	CmdCreateDebate    = "create_debate"
	CmdJoinDebate      = "join_debate"
	CmdSelectTopicSide = "select_topic_side"
	CmdSendMessage     = "send_message"
	CmdGetDebateInfo   = "get_debate_info"
	CmdLeaveDebate     = "leave_debate"
	CmdResumeDebate    = "resume_debate"
	CmdPing            = "ping"
)

// Command is the closed set of inbound requests a participant can make.
type Command interface {
	commandType() string
}

type CreateRoom struct {
	Topic      string `json:"topic"`
	TopicSideA string `json:"topicSideA"`
	TopicSideB string `json:"topicSideB"`
}

type JoinRoom struct {
	RoomCode string `json:"roomCode"`
}

type SelectSide struct {
	RoomCode string `json:"roomCode"`
	Choice   string `json:"choice"`
}

type SendMessage struct {
	Content string `json:"content"`
}

type GetRoomInfo struct {
	RoomCode string `json:"roomCode"`
}

type LeaveRoom struct{}

type Resume struct {
	SeatToken string `json:"seatToken"`
}

type Ping struct{}

func (CreateRoom) commandType() string  { return CmdCreateDebate }
func (JoinRoom) commandType() string    { return CmdJoinDebate }
func (SelectSide) commandType() string  { return CmdSelectTopicSide }
func (SendMessage) commandType() string { return CmdSendMessage }
func (GetRoomInfo) commandType() string { return CmdGetDebateInfo }
func (LeaveRoom) commandType() string   { return CmdLeaveDebate }
func (Resume) commandType() string      { return CmdResumeDebate }
func (Ping) commandType() string        { return CmdPing }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ParseCommand decodes a JSON envelope {"type": ..., "payload": {...}}.
// Unknown types and undecodable payloads are ErrInvalidCommand.
func ParseCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", debate.ErrInvalidCommand, err)
	}

	var cmd Command
	switch env.Type {
	case CmdCreateDebate:
		cmd = &CreateRoom{}
	case CmdJoinDebate:
		cmd = &JoinRoom{}
	case CmdSelectTopicSide:
		cmd = &SelectSide{}
	case CmdSendMessage:
		cmd = &SendMessage{}
	case CmdGetDebateInfo:
		cmd = &GetRoomInfo{}
	case CmdLeaveDebate:
		return LeaveRoom{}, nil
	case CmdResumeDebate:
		cmd = &Resume{}
	case CmdPing:
		return Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", debate.ErrInvalidCommand, env.Type)
	}

	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: %v", debate.ErrInvalidCommand, err)
		}
	}
	return deref(cmd), nil
}

func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *CreateRoom:
		return *c
	case *JoinRoom:
		return *c
	case *SelectSide:
		return *c
	case *SendMessage:
		return *c
	case *GetRoomInfo:
		return *c
	case *Resume:
		return *c
	}
	return cmd
}
