// internal/debate/engine.go
package debate

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/argumentor/internal/models"
)

const (
	DefaultArgumentsPerSide = 3
	DefaultTurnDuration     = 60 * time.Second
	DefaultMaxMessageLength = 2000

	DefaultSideALabel = "For"
	DefaultSideBLabel = "Against"
	DefaultSideAName  = "Debater A"
	DefaultSideBName  = "Debater B"
)

// Rules are the per-deployment debate settings.
type Rules struct {
	ArgumentsPerSide int
	TurnDuration     time.Duration
	// SideSelection routes a full room through SIDE_SELECTION instead of starting immediately.
	SideSelection    bool
	MaxMessageLength int
}

// DefaultRules returns the stock 3-argument, 60-second rules with side selection on.
func DefaultRules() Rules {
	return Rules{
		ArgumentsPerSide: DefaultArgumentsPerSide,
		TurnDuration:     DefaultTurnDuration,
		SideSelection:    true,
		MaxMessageLength: DefaultMaxMessageLength,
	}
}

// Engine maps (snapshot, event) to the next snapshot. It holds no room state; the
// clock, id source and coin are injected so identical inputs give identical outputs.
type Engine struct {
	Rules    Rules
	Now      func() time.Time
	NewID    func() string
	PickSide func() models.Side
}

// NewEngine builds an engine on the wall clock with random ids and a fair coin.
func NewEngine(rules Rules) *Engine {
	return &Engine{
		Rules: rules,
		Now:   time.Now,
		NewID: func() string { return uuid.NewString() },
		PickSide: func() models.Side {
			if rand.Intn(2) == 0 {
				return models.SideA
			}
			return models.SideB
		},
	}
}

// Create opens a room with side A already seated.
func (e *Engine) Create(roomCode, topic, sideALabel, sideBLabel, creatorName string) (models.Debate, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return models.Debate{}, ErrInvalidTopic
	}
	sideALabel = orDefault(sideALabel, DefaultSideALabel)
	sideBLabel = orDefault(sideBLabel, DefaultSideBLabel)
	if sideALabel == sideBLabel {
		return models.Debate{}, ErrInvalidTopicSide
	}
	return models.Debate{
		RoomCode:            roomCode,
		Topic:               topic,
		TopicSideA:          sideALabel,
		TopicSideB:          sideBLabel,
		SideAName:           orDefault(creatorName, DefaultSideAName),
		Status:              models.StatusWaiting,
		SideAJoined:         true,
		SideBJoined:         false,
		ArgumentsRemainingA: e.Rules.ArgumentsPerSide,
		ArgumentsRemainingB: e.Rules.ArgumentsPerSide,
		Messages:            []models.Message{},
	}, nil
}

// Join seats side B. Depending on the rules the room either waits for a stance
// choice or starts straight away.
func (e *Engine) Join(d models.Debate, joinerName string) (models.Debate, error) {
	if d.SideBJoined {
		return d, ErrRoomFull
	}
	if d.Status != models.StatusWaiting {
		return d, ErrDebateNotActive
	}
	next := d.Clone()
	next.SideBJoined = true
	next.SideBName = orDefault(joinerName, DefaultSideBName)
	if next.SideAName == "" {
		next.SideAName = DefaultSideAName
	}
	if e.Rules.SideSelection {
		next.Status = models.StatusSideSelection
		return next, nil
	}
	e.start(&next)
	return next, nil
}

// SelectSide fixes the stances and starts the first turn. Choice "A" means the
// chooser takes the original side-A stance, so the labels swap.
func (e *Engine) SelectSide(d models.Debate, choice string) (models.Debate, error) {
	if choice != "A" && choice != "B" {
		return d, ErrInvalidTopicSide
	}
	if d.Status != models.StatusSideSelection {
		return d, ErrSelectionClosed
	}
	next := d.Clone()
	if choice == "A" {
		next.TopicSideA, next.TopicSideB = d.TopicSideB, d.TopicSideA
	}
	e.start(&next)
	return next, nil
}

// ApplyMessage appends a validated argument and advances the turn.
// Callers must run ValidateMessage first.
func (e *Engine) ApplyMessage(d models.Debate, side models.Side, content string) (models.Debate, models.Message) {
	next := d.Clone()
	msg := models.Message{
		ID:        e.NewID(),
		Side:      side,
		Content:   strings.TrimSpace(content),
		Timestamp: e.Now().UTC(),
	}
	next.Messages = append(next.Messages, msg)
	decrement(&next, side)
	e.advanceTurn(&next, side)
	return next, msg
}

// ApplyTimeout forfeits one argument of the side that let its turn lapse. The
// bool is false, and d is returned untouched, when there is no running turn.
func (e *Engine) ApplyTimeout(d models.Debate) (models.Debate, bool) {
	if d.Status != models.StatusActive || d.CurrentTurn == nil {
		return d, false
	}
	speaker := *d.CurrentTurn
	next := d.Clone()
	decrement(&next, speaker)
	e.advanceTurn(&next, speaker)
	return next, true
}

// advanceTurn is shared by the message and timeout paths.
func (e *Engine) advanceTurn(d *models.Debate, speaker models.Side) {
	nextSide := speaker.Opposite()
	bothSpent := d.ArgumentsRemainingA == 0 && d.ArgumentsRemainingB == 0
	if bothSpent || d.Remaining(nextSide) == 0 {
		d.Status = models.StatusEnded
		d.CurrentTurn = nil
		d.TurnEndsAt = nil
		return
	}
	d.Status = models.StatusActive
	d.CurrentTurn = models.SidePtr(nextSide)
	d.TurnEndsAt = e.deadline()
}

func (e *Engine) start(d *models.Debate) {
	d.Status = models.StatusActive
	d.CurrentTurn = models.SidePtr(e.PickSide())
	d.TurnEndsAt = e.deadline()
}

func (e *Engine) deadline() *time.Time {
	t := e.Now().Add(e.Rules.TurnDuration).UTC()
	return &t
}

func decrement(d *models.Debate, side models.Side) {
	if side == models.SideA {
		if d.ArgumentsRemainingA > 0 {
			d.ArgumentsRemainingA--
		}
		return
	}
	if d.ArgumentsRemainingB > 0 {
		d.ArgumentsRemainingB--
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
