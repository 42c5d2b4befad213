// internal/models/debate.go
package models

import "time"

// Side identifies one of the two debaters. SideTie only appears as an evaluation winner.
type Side string

const (
	SideA   Side = "SIDE_A"
	SideB   Side = "SIDE_B"
	SideTie Side = "TIE"
)

// Valid reports whether s is one of the two debating sides.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opposite returns the other debating side.
func (s Side) Opposite() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Status is the lifecycle state of a debate room.
type Status string

const (
	StatusWaiting       Status = "WAITING"        // side A is in, waiting for an opponent
	StatusSideSelection Status = "SIDE_SELECTION" // both joined, waiting for a stance choice
	StatusActive        Status = "ACTIVE"
	StatusEnded         Status = "ENDED" // argument budget exhausted, awaiting the judge
	StatusEvaluated     Status = "EVALUATED"
)

// Debate is the complete snapshot of a room, persisted as one record per room code.
type Debate struct {
	RoomCode   string `json:"roomCode"`
	Topic      string `json:"topic"`
	TopicSideA string `json:"topicSideA"`
	TopicSideB string `json:"topicSideB"`
	SideAName  string `json:"sideAName"`
	SideBName  string `json:"sideBName,omitempty"`

	Status      Status `json:"status"`
	SideAJoined bool   `json:"sideAJoined"`
	SideBJoined bool   `json:"sideBJoined"`

	ArgumentsRemainingA int `json:"argumentsRemainingA"`
	ArgumentsRemainingB int `json:"argumentsRemainingB"`

	CurrentTurn *Side      `json:"currentTurn"`
	TurnEndsAt  *time.Time `json:"turnEndsAt,omitempty"`

	Messages   []Message   `json:"messages"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// Message is one accepted argument.
type Message struct {
	ID        string    `json:"id"`
	Side      Side      `json:"side"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Evaluation is the judge's verdict. A nil Winner means the judge did not name one.
type Evaluation struct {
	ID        string    `json:"id"`
	Winner    *Side     `json:"winner,omitempty"`
	ScoreA    float64   `json:"scoreA"`
	ScoreB    float64   `json:"scoreB"`
	Reasoning string    `json:"reasoning"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy so transitions never share pointers or the message slice with their input.
func (d Debate) Clone() Debate {
	out := d
	if d.CurrentTurn != nil {
		turn := *d.CurrentTurn
		out.CurrentTurn = &turn
	}
	if d.TurnEndsAt != nil {
		ends := *d.TurnEndsAt
		out.TurnEndsAt = &ends
	}
	out.Messages = make([]Message, len(d.Messages))
	copy(out.Messages, d.Messages)
	if d.Evaluation != nil {
		ev := *d.Evaluation
		if d.Evaluation.Winner != nil {
			w := *d.Evaluation.Winner
			ev.Winner = &w
		}
		out.Evaluation = &ev
	}
	return out
}

// Remaining returns the argument counter for side.
func (d *Debate) Remaining(side Side) int {
	if side == SideA {
		return d.ArgumentsRemainingA
	}
	return d.ArgumentsRemainingB
}

// Turn returns the current turn or "" when nobody may speak.
func (d *Debate) Turn() Side {
	if d.CurrentTurn == nil {
		return ""
	}
	return *d.CurrentTurn
}

// DisplayName returns the debater name for side.
func (d *Debate) DisplayName(side Side) string {
	if side == SideA {
		return d.SideAName
	}
	return d.SideBName
}

// Label returns the stance label for side.
func (d *Debate) Label(side Side) string {
	if side == SideA {
		return d.TopicSideA
	}
	return d.TopicSideB
}

// SidePtr is a small helper for building optional sides.
func SidePtr(s Side) *Side {
	return &s
}
