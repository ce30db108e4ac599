// Package token issues and validates the HS256 access/refresh token pair.
//
// Refresh tokens are not rotated: a refresh token stays usable until it
// expires or is revoked, and every Refresh call mints a fresh access token.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired   = errors.New("token expired")
	ErrInvalid   = errors.New("token invalid")
	ErrMalformed = errors.New("token malformed")
)

// Kind is carried in the "typ" claim so one kind of token cannot stand in
// for the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims are the registered claims plus the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"typ"`
}

// Token is a signed JWT and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Pair is what a successful login hands out.
type Pair struct {
	Access  Token
	Refresh Token
}

// State describes where a Pair is in its lifecycle.
type State int

const (
	Issued State = iota
	AccessExpired
	RefreshExpired
)

func (s State) String() string {
	switch s {
	case Issued:
		return "issued"
	case AccessExpired:
		return "access_expired"
	case RefreshExpired:
		return "refresh_expired"
	}
	return "unknown"
}

// Denylist records revoked refresh tokens by the hash of their jti.
type Denylist interface {
	Revoke(ctx context.Context, tokenHash string, userID uint64, exp time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	deny       Denylist
}

type Option func(*Service)

// WithDenylist enables Revoke and makes Refresh consult d.
func WithDenylist(d Denylist) Option { return func(s *Service) { s.deny = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a new access/refresh pair for userID.
func (s *Service) Issue(userID uint64) (Pair, error) {
	access, err := s.sign(userID, KindAccess, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(userID, KindRefresh, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Refresh validates a refresh token and mints a new access token for the
// same user. The refresh token itself is left valid.
func (s *Service) Refresh(ctx context.Context, refresh string) (Token, error) {
	c, err := s.parse(refresh, KindRefresh)
	if err != nil {
		return Token{}, err
	}
	if s.deny != nil {
		revoked, err := s.deny.IsRevoked(ctx, HashID(c.ID))
		if err != nil {
			return Token{}, fmt.Errorf("check denylist: %w", err)
		}
		if revoked {
			return Token{}, ErrInvalid
		}
	}
	uid, err := subject(c)
	if err != nil {
		return Token{}, err
	}
	return s.sign(uid, KindAccess, s.accessTTL)
}

// Authenticate validates an access token and returns its user id. It has no
// side effects.
func (s *Service) Authenticate(access string) (uint64, error) {
	c, err := s.parse(access, KindAccess)
	if err != nil {
		return 0, err
	}
	return subject(c)
}

// Revoke puts a refresh token on the denylist until it expires. Without a
// denylist it only validates the token.
func (s *Service) Revoke(ctx context.Context, refresh string) error {
	c, err := s.parse(refresh, KindRefresh)
	if err != nil {
		return err
	}
	if s.deny == nil {
		return nil
	}
	uid, err := subject(c)
	if err != nil {
		return err
	}
	return s.deny.Revoke(ctx, HashID(c.ID), uid, c.ExpiresAt.Time)
}

// State reports the lifecycle state of p at the current time.
func (s *Service) State(p Pair) State {
	now := s.now()
	switch {
	case !now.Before(p.Refresh.ExpiresAt):
		return RefreshExpired
	case !now.Before(p.Access.ExpiresAt):
		return AccessExpired
	}
	return Issued
}

// HashID returns the hex SHA-256 of a token id. Only hashes reach storage.
func HashID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func (s *Service) sign(userID uint64, kind Kind, ttl time.Duration) (Token, error) {
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) parse(raw string, want Kind) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}
	c := &Claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	default:
		return nil, ErrInvalid
	}
	if c.Kind != want {
		return nil, ErrInvalid
	}
	return c, nil
}

func subject(c *Claims) (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalid
	}
	return id, nil
}
