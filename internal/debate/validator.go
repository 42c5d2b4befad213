package debate

import (
	"strings"
	"unicode/utf8"

	"github.com/jason-s-yu/argumentor/internal/models"
)

// Seat is a participant's association with a room, as recorded on their connection.
type Seat struct {
	RoomCode string
	Side     models.Side
}

// Seated reports whether the seat names a room and a side.
func (s Seat) Seated() bool {
	return s.RoomCode != "" && s.Side != ""
}

// ValidateSeat runs the checks that need no snapshot: membership, content, side.
// It is safe to call before taking the room lock.
func ValidateSeat(seat Seat, content string, maxLen int) error {
	if !seat.Seated() {
		return ErrNotInDebate
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrInvalidMessage
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return ErrMessageTooLong
	}
	if !seat.Side.Valid() {
		return ErrInvalidSide
	}
	return nil
}

// ValidateTurn checks that side may speak now in d.
func ValidateTurn(d *models.Debate, side models.Side) error {
	if d.Status != models.StatusActive {
		return ErrDebateNotActive
	}
	if d.Turn() != side {
		return ErrNotYourTurn
	}
	if d.Remaining(side) <= 0 {
		return ErrNoArgumentsLeft
	}
	return nil
}

// ValidateMessage runs every admission check in order against d. A nil d means
// the room no longer exists. Nothing is mutated.
func ValidateMessage(d *models.Debate, seat Seat, content string, maxLen int) error {
	if err := ValidateSeat(seat, content, maxLen); err != nil {
		return err
	}
	if d == nil {
		return ErrRoomNotFound
	}
	return ValidateTurn(d, seat.Side)
}
