// Package credential owns user identities: email normalization, secret
// hashing, registration, verification and self-service profile updates.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/repository"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrWeakSecret        = errors.New("password too short")
	ErrSecretTooLong     = errors.New("password too long")
	ErrDuplicateIdentity = errors.New("email already registered")
	ErrNotFound          = errors.New("user not found")
	// ErrBadCredentials covers a wrong password and an inactive account.
	ErrBadCredentials = errors.New("invalid credentials")
)

// DefaultMinSecretLength is used when Options.MinSecretLength is zero.
const DefaultMinSecretLength = 6

// MaxSecretBytes is the longest secret bcrypt accepts.
const MaxSecretBytes = 72

// MaxEmailLength and MaxNameLength match the users table columns.
const (
	MaxEmailLength = 255
	MaxNameLength  = 125
)

// UserRepository is the persistence the store needs. Both
// repository.UserRepo and repository.MemoryUserRepo satisfy it.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
}

type Options struct {
	MinSecretLength int
	BcryptCost      int
}

// Store implements the credential operations on top of a UserRepository.
type Store struct {
	users     UserRepository
	minSecret int
	cost      int
	matches   func(hash, plain string) bool
	dummyHash func() string
}

func NewStore(users UserRepository, opts Options) *Store {
	s := &Store{users: users, minSecret: opts.MinSecretLength, cost: opts.BcryptCost}
	if s.minSecret <= 0 {
		s.minSecret = DefaultMinSecretLength
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	s.matches = secretMatches
	// Unknown emails are compared against this hash so that they cost as
	// much as a wrong password.
	s.dummyHash = sync.OnceValue(func() string {
		h, _ := hashSecret("unknown-user-placeholder", s.cost)
		return h
	})
	return s
}

// NormalizeEmail trims and lower-cases email and checks that the result is a
// bare address.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || len(e) > MaxEmailLength {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// Registration is the input to Register and CreateSuperuser.
type Registration struct {
	Email      string
	Password   string
	GivenName  string
	FamilyName string
}

// Register creates a regular, active, non-elevated user.
func (s *Store) Register(ctx context.Context, r Registration) (*model.User, error) {
	return s.create(ctx, r, false)
}

// CreateSuperuser creates an elevated user. It is only reachable from the
// administrative bootstrap command.
func (s *Store) CreateSuperuser(ctx context.Context, r Registration) (*model.User, error) {
	return s.create(ctx, r, true)
}

func (s *Store) create(ctx context.Context, r Registration, elevated bool) (*model.User, error) {
	email, err := NormalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if err := s.checkSecret(r.Password); err != nil {
		return nil, err
	}
	given, family := strings.TrimSpace(r.GivenName), strings.TrimSpace(r.FamilyName)
	if err := checkName("given_name", given); err != nil {
		return nil, err
	}
	if err := checkName("family_name", family); err != nil {
		return nil, err
	}
	hash, err := hashSecret(r.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		GivenName:    given,
		FamilyName:   family,
		IsActive:     true,
		IsElevated:   elevated,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return u, nil
}

// Verify returns the user identified by email if password matches. Callers
// must surface ErrNotFound and ErrBadCredentials identically.
func (s *Store) Verify(ctx context.Context, email, password string) (*model.User, error) {
	e, err := NormalizeEmail(email)
	if err != nil {
		s.matches(s.dummyHash(), password)
		return nil, ErrNotFound
	}
	u, err := s.users.GetByEmail(ctx, e)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.matches(s.dummyHash(), password)
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.matches(u.PasswordHash, password) || !u.IsActive {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// Get loads a user by id.
func (s *Store) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ProfileUpdate lists the self-service fields. Nil fields are left alone.
type ProfileUpdate struct {
	GivenName  *string
	FamilyName *string
	Password   *string
}

// UpdateProfile applies upd to the user and persists it. Email, active and
// elevated flags cannot change through this path.
func (s *Store) UpdateProfile(ctx context.Context, userID uint64, upd ProfileUpdate) (*model.User, error) {
	if upd.Password != nil {
		if err := s.checkSecret(*upd.Password); err != nil {
			return nil, err
		}
	}
	var given, family string
	if upd.GivenName != nil {
		given = strings.TrimSpace(*upd.GivenName)
		if err := checkName("given_name", given); err != nil {
			return nil, err
		}
	}
	if upd.FamilyName != nil {
		family = strings.TrimSpace(*upd.FamilyName)
		if err := checkName("family_name", family); err != nil {
			return nil, err
		}
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.GivenName != nil {
		u.GivenName = given
	}
	if upd.FamilyName != nil {
		u.FamilyName = family
	}
	if upd.Password != nil {
		hash, err := hashSecret(*upd.Password, s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash secret: %w", err)
		}
		u.PasswordHash = hash
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) checkSecret(plain string) error {
	if len([]rune(plain)) < s.minSecret {
		return ErrWeakSecret
	}
	if len(plain) > MaxSecretBytes {
		return ErrSecretTooLong
	}
	return nil
}

func checkName(field, name string) error {
	if n := len([]rune(name)); n > MaxNameLength {
		return &model.ValidationError{Field: field, Message: fmt.Sprintf("at most %d characters", MaxNameLength)}
	}
	return nil
}
