package debate

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RoomCodeLength   = 6
	roomCodeAttempts = 10
)

// ExistsFunc reports whether a room code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// RandomRoomCode returns a code of RoomCodeLength characters from [A-Z0-9].
func RandomRoomCode() string {
	b := make([]byte, RoomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}

// GenerateRoomCode draws random codes until exists reports a free one, giving
// up after ten attempts.
func GenerateRoomCode(ctx context.Context, exists ExistsFunc) (string, error) {
	return generateRoomCode(ctx, exists, RandomRoomCode)
}

func generateRoomCode(ctx context.Context, exists ExistsFunc, next func() string) (string, error) {
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		code := next()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique room code after %d attempts", roomCodeAttempts)
}

// NormalizeRoomCode upper-cases and trims a user-supplied code, returning
// ErrInvalidRoomCode when it cannot be a room code.
func NormalizeRoomCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != RoomCodeLength {
		return "", ErrInvalidRoomCode
	}
	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			return "", ErrInvalidRoomCode
		}
	}
	return code, nil
}
