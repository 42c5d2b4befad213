package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/argumentor/internal/debate"
)

// Sender delivers events to one connection. Send must not block.
type Sender interface {
	Send(Event)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(Event)

func (f SenderFunc) Send(e Event) { f(e) }

// Participant is one connected client. Its seat is set by the coordinator and
// may change as the client joins, leaves or resumes.
type Participant struct {
	ID   string
	Name string

	sender Sender
	mu     sync.Mutex
	seat   debate.Seat
}

// NewParticipant creates an unseated participant.
func NewParticipant(name string, sender Sender) *Participant {
	return &Participant{ID: uuid.NewString(), Name: name, sender: sender}
}

func (p *Participant) Send(e Event) {
	if p.sender != nil {
		p.sender.Send(e)
	}
}

// Seat returns the participant's current room association.
func (p *Participant) Seat() debate.Seat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seat
}

func (p *Participant) setSeat(s debate.Seat) {
	p.mu.Lock()
	p.seat = s
	p.mu.Unlock()
}
