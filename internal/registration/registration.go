// Package registration validates sign-up forms and persists new users.
package registration

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/registrar/internal/auth"
	"github.com/Nixie-Tech-LLC/registrar/internal/db"
	"github.com/Nixie-Tech-LLC/registrar/internal/events"
	"github.com/Nixie-Tech-LLC/registrar/internal/model"
)

// SuccessPage is where a successful registration redirects.
const SuccessPage = "/success"

// Form is the raw submission. Fields are taken as-is, no trimming.
type Form struct {
	Birthday        string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Outcome of a successful registration.
type Outcome struct {
	UserID     int
	RedirectTo string
}

// Service runs the registration pipeline and the listing and probe reads.
type Service struct {
	store     db.Store
	hasher    auth.Hasher
	publisher events.Publisher
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets where user.registered events go. Defaults to a no-op.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(store db.Store, hasher auth.Hasher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		hasher:    hasher,
		publisher: events.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates f and stores a new user. Each check short-circuits:
// presence, password confirmation, birthday format, email uniqueness.
// The password is hashed only once every check has passed.
//
// The returned error is a *ValidationError or a *PersistenceError.
func (s *Service) Register(ctx context.Context, f Form) (Outcome, error) {
	if f.Birthday == "" || f.FirstName == "" || f.LastName == "" ||
		f.Email == "" || f.Password == "" || f.ConfirmPassword == "" {
		return Outcome{}, invalid(MsgFieldsRequired)
	}

	if f.Password != f.ConfirmPassword {
		return Outcome{}, invalid(MsgPasswordsDiffer)
	}

	birthday, err := time.Parse(model.BirthdayLayout, f.Birthday)
	if err != nil {
		return Outcome{}, invalid(MsgInvalidBirthday)
	}

	existing, err := s.store.GetUserByEmail(ctx, f.Email)
	switch {
	case err == nil && existing != nil:
		return Outcome{}, invalid(MsgEmailExists)
	case err != nil && !errors.Is(err, db.ErrUserNotFound):
		log.Error().Err(err).Msg("registration: email lookup failed")
		return Outcome{}, persistence(err)
	}

	digest, err := s.hasher.Hash(f.Password)
	if err != nil {
		log.Error().Err(err).Msg("registration: could not hash password")
		return Outcome{}, persistence(err)
	}

	user := model.User{
		Birthday:       birthday,
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Email:          f.Email,
		PasswordDigest: digest,
		CreatedAt:      s.now().UTC(),
	}

	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		// the unique constraint is authoritative; the lookup above only
		// catches the common case before hashing
		if errors.Is(err, db.ErrEmailTaken) {
			log.Warn().Str("email", f.Email).Msg("registration: lost duplicate email race")
			return Outcome{}, invalid(MsgEmailExists)
		}
		log.Error().Err(err).Str("email", f.Email).Msg("registration: could not create user")
		return Outcome{}, persistence(err)
	}

	log.Info().Int("user_id", id).Msg("user registered")
	s.announce(ctx, events.UserRegistered{ID: id, Email: user.Email, CreatedAt: user.CreatedAt})

	return Outcome{UserID: id, RedirectTo: SuccessPage}, nil
}

// announce is best effort; the user row is already committed.
func (s *Service) announce(ctx context.Context, ev events.UserRegistered) {
	payload, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Msg("registration: encode event")
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicUserRegistered, payload); err != nil {
		log.Warn().Err(err).Int("user_id", ev.ID).Msg("registration: publish event failed")
	}
}

// ListUsers returns every registered user, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, persistence(err)
	}
	return users, nil
}

// Probe reports whether the store answers a trivial query.
func (s *Service) Probe(ctx context.Context) error {
	return s.store.Ping(ctx)
}
