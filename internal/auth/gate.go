package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/session"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrStaleToken   = errors.New("token has been revoked")
)

// Identity is what the gate hands to downstream handlers.
type Identity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int64  `json:"tokenVersion"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type VersionChecker interface {
	IsVersionValid(ctx context.Context, userID string, presented int64) (bool, error)
}

// Gate turns a raw bearer token into a verified identity.
type Gate struct {
	codec    *Codec
	versions VersionChecker
	now      func() time.Time
}

func NewGate(codec *Codec, versions VersionChecker) *Gate {
	return &Gate{codec: codec, versions: versions, now: codec.now}
}

// Authenticate returns ErrNoToken, ErrInvalidToken or ErrStaleToken for
// caller mistakes. Any other error is an internal fault.
func (g *Gate) Authenticate(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrNoToken
	}

	if !g.codec.Verify(raw) {
		return Identity{}, ErrInvalidToken
	}

	p, err := g.codec.Decode(raw)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	// Verify already enforces exp; kept so a codec swap cannot relax it.
	if p.ExpiresAt.IsZero() || !g.now().Before(p.ExpiresAt) {
		return Identity{}, ErrInvalidToken
	}

	ok, err := g.versions.IsVersionValid(ctx, p.UserID, p.TokenVersion)
	if err != nil {
		if errors.Is(err, session.ErrUnknownUser) {
			return Identity{}, ErrStaleToken
		}
		return Identity{}, fmt.Errorf("check token version: %w", err)
	}
	if !ok {
		return Identity{}, ErrStaleToken
	}

	return Identity{
		ID:           p.UserID,
		Email:        p.Email,
		Role:         p.Role,
		TokenVersion: p.TokenVersion,
	}, nil
}

// IsRejection reports whether err is a caller-facing 401 rather than a fault.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrStaleToken)
}

// ExtractToken accepts both "Authorization: <token>" and
// "Authorization: Bearer <token>".
func ExtractToken(header string) string {
	raw := strings.TrimSpace(header)

	if len(raw) >= 7 && strings.EqualFold(raw[:7], "Bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}

	return raw
}
