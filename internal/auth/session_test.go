// internal/auth/session_test.go
package auth

import (
	"testing"
	"time"

	"github.com/jason-s-yu/argumentor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	s, err := NewSeatSigner("", time.Hour)
	require.NoError(t, err)

	token, err := s.CreateSeatToken(Seat{RoomCode: "ABC123", Side: models.SideB, Name: "Bob"})
	require.NoError(t, err)

	seat, err := s.ParseSeatToken(token)
	require.NoError(t, err)
	assert.Equal(t, Seat{RoomCode: "ABC123", Side: models.SideB, Name: "Bob"}, seat)
}

func TestSeededSignersAgree(t *testing.T) {
	a, err := NewSeatSigner("shared-seed", 0)
	require.NoError(t, err)
	b, err := NewSeatSigner("shared-seed", 0)
	require.NoError(t, err)
	other, err := NewSeatSigner("other-seed", 0)
	require.NoError(t, err)

	token, err := a.CreateSeatToken(Seat{RoomCode: "ABC123", Side: models.SideA})
	require.NoError(t, err)

	_, err = b.ParseSeatToken(token)
	assert.NoError(t, err, "a restarted process with the same seed accepts old tokens")

	_, err = other.ParseSeatToken(token)
	assert.ErrorIs(t, err, ErrInvalidSeatToken)
}

func TestSeatTokenExpiry(t *testing.T) {
	s, err := NewSeatSigner("seed", time.Minute)
	require.NoError(t, err)
	now := time.Now()
	s.Now = func() time.Time { return now }

	token, err := s.CreateSeatToken(Seat{RoomCode: "ABC123", Side: models.SideA})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.ParseSeatToken(token)
	assert.ErrorIs(t, err, ErrInvalidSeatToken)
}

func TestSeatTokenRejectsGarbage(t *testing.T) {
	s, err := NewSeatSigner("seed", 0)
	require.NoError(t, err)

	_, err = s.ParseSeatToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSeatToken)

	token, err := s.CreateSeatToken(Seat{RoomCode: "ABC123", Side: models.SideTie})
	require.NoError(t, err)
	_, err = s.ParseSeatToken(token)
	assert.ErrorIs(t, err, ErrInvalidSeatToken)
}
