package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Payload is the identity stamped into every bearer token.
type Payload struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	TokenVersion int64     `json:"tokenVersion"`
	IssuedAt     time.Time `json:"iat"`
	ExpiresAt    time.Time `json:"exp"`
}

type Claims struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int64  `json:"tokenVersion"`
	jwt.RegisteredClaims
}

func (c *Claims) payload() Payload {
	p := Payload{
		UserID:       c.UserID,
		Email:        c.Email,
		Role:         c.Role,
		TokenVersion: c.TokenVersion,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

var (
	ErrMalformedToken = errors.New("malformed token")
	errSigningMethod  = errors.New("unexpected signing method")
)

// Codec signs and verifies HS256 tokens. The zero value is not usable.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec reading time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue builds a fresh payload (iat = now, exp = now + ttl) and signs it.
func (c *Codec) Issue(userID, email, role string, version int64) (string, Payload, error) {
	now := c.now().UTC().Truncate(time.Second)

	p := Payload{
		UserID:       userID,
		Email:        email,
		Role:         role,
		TokenVersion: version,
		IssuedAt:     now,
		ExpiresAt:    now.Add(c.ttl),
	}

	token, err := c.Sign(p)
	if err != nil {
		return "", Payload{}, err
	}
	return token, p, nil
}

// Sign is deterministic for identical payloads and secret.
func (c *Codec) Sign(p Payload) (string, error) {
	claims := Claims{
		UserID:       p.UserID,
		Email:        p.Email,
		Role:         p.Role,
		TokenVersion: p.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify reports whether the token is well formed, carries a valid HS256
// signature for the codec secret and has not expired. A token whose exp
// equals the current second is already expired.
func (c *Codec) Verify(token string) bool {
	_, err := c.parse(token)
	return err == nil
}

// Decode extracts the payload without checking the signature or expiry.
// Never base a trust decision on it unless Verify succeeded first.
func (c *Codec) Decode(token string) (Payload, error) {
	var claims Claims

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return Payload{}, ErrMalformedToken
	}

	return claims.payload(), nil
}

func (c *Codec) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errSigningMethod
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)

	if err != nil {
		return nil, err
	}

	if !parsed.Valid {
		return nil, ErrMalformedToken
	}

	return claims, nil
}
