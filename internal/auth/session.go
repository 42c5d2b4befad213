// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jason-s-yu/argumentor/internal/models"
)

// ErrInvalidSeatToken is returned for any token that does not verify or carries bad claims.
var ErrInvalidSeatToken = errors.New("invalid seat token")

// Seat is what a seat token proves: who sits on which side of which room.
type Seat struct {
	RoomCode string
	Side     models.Side
	Name     string
}

// SeatSigner issues and verifies seat tokens. A client presents its token
// after reconnecting to take its seat back.
type SeatSigner struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// TTL is the token lifetime; 0 means no exp claim.
	TTL time.Duration
	Now func() time.Time
}

// NewSeatSigner derives the key pair from seed so tokens survive restarts.
// An empty seed generates a fresh key pair for this process only.
func NewSeatSigner(seed string, ttl time.Duration) (*SeatSigner, error) {
	var (
		pub  ed25519.PublicKey
		priv ed25519.PrivateKey
	)
	if seed == "" {
		var err error
		pub, priv, err = ed25519.GenerateKey(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
		}
	} else {
		sum := sha256.Sum256([]byte(seed))
		priv = ed25519.NewKeyFromSeed(sum[:])
		pub = priv.Public().(ed25519.PublicKey)
	}
	return &SeatSigner{privateKey: priv, publicKey: pub, TTL: ttl, Now: time.Now}, nil
}

// CreateSeatToken signs a token for the seat.
func (s *SeatSigner) CreateSeatToken(seat Seat) (string, error) {
	claims := jwt.MapClaims{
		"sub":  seat.RoomCode,
		"side": string(seat.Side),
		"name": seat.Name,
		"iat":  s.Now().Unix(),
	}
	if s.TTL > 0 {
		claims["exp"] = s.Now().Add(s.TTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// ParseSeatToken verifies the token and returns the seat it was issued for.
func (s *SeatSigner) ParseSeatToken(tokenString string) (Seat, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.Now))
	if err != nil {
		return Seat{}, fmt.Errorf("%w: %v", ErrInvalidSeatToken, err)
	}
	if !t.Valid {
		return Seat{}, ErrInvalidSeatToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Seat{}, ErrInvalidSeatToken
	}
	room, _ := claims["sub"].(string)
	side, _ := claims["side"].(string)
	name, _ := claims["name"].(string)
	if room == "" || !models.Side(side).Valid() {
		return Seat{}, fmt.Errorf("%w: missing room or side", ErrInvalidSeatToken)
	}
	return Seat{RoomCode: room, Side: models.Side(side), Name: name}, nil
}
