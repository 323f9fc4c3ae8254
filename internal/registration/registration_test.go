package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nixie-Tech-LLC/registrar/internal/auth"
	"github.com/Nixie-Tech-LLC/registrar/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/registrar/internal/events"
	"github.com/Nixie-Tech-LLC/registrar/internal/model"
)

type countingHasher struct {
	auth.Hasher
	calls int
	err   error
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return h.Hasher.Hash(plain)
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *recordingPublisher) Close() {}

type fixture struct {
	svc    *Service
	store  *dbtest.MemoryStore
	hasher *countingHasher
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bc, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		store:  dbtest.NewMemoryStore(),
		hasher: &countingHasher{Hasher: bc},
		pub:    &recordingPublisher{},
	}

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.svc = NewService(f.store, f.hasher,
		WithPublisher(f.pub),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	return f
}

func validForm() Form {
	return Form{
		Birthday:        "1990-05-12",
		FirstName:       "Ana",
		LastName:        "Cruz",
		Email:           "ana@example.com",
		Password:        "p@ss1234",
		ConfirmPassword: "p@ss1234",
	}
}

func requireValidation(t *testing.T, err error, msg string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, msg, verr.Message)
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Register(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, SuccessPage, out.RedirectTo)
	assert.Equal(t, 1, out.UserID)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)

	u := users[0]
	assert.Equal(t, "Ana", u.FirstName)
	assert.Equal(t, "Cruz", u.LastName)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "1990-05-12", u.Birthday.Format(model.BirthdayLayout))
	assert.NotEmpty(t, u.PasswordDigest)
	assert.NotEqual(t, "p@ss1234", u.PasswordDigest)
	assert.True(t, f.hasher.Compare(u.PasswordDigest, "p@ss1234"))
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
}

func TestRegister_ValidationGates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		msg    string
	}{
		{"missing birthday", func(f *Form) { f.Birthday = "" }, MsgFieldsRequired},
		{"missing first name", func(f *Form) { f.FirstName = "" }, MsgFieldsRequired},
		{"missing last name", func(f *Form) { f.LastName = "" }, MsgFieldsRequired},
		{"missing email", func(f *Form) { f.Email = "" }, MsgFieldsRequired},
		{"missing password", func(f *Form) { f.Password = "" }, MsgFieldsRequired},
		{"missing confirmation", func(f *Form) { f.ConfirmPassword = "" }, MsgFieldsRequired},
		{"password mismatch", func(f *Form) { f.ConfirmPassword = "p@ss12345" }, MsgPasswordsDiffer},
		{"case differs", func(f *Form) { f.ConfirmPassword = "P@SS1234" }, MsgPasswordsDiffer},
		{"us date", func(f *Form) { f.Birthday = "13/31/2020" }, MsgInvalidBirthday},
		{"impossible date", func(f *Form) { f.Birthday = "2020-02-30" }, MsgInvalidBirthday},
		{"datetime", func(f *Form) { f.Birthday = "1990-05-12T00:00:00Z" }, MsgInvalidBirthday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			form := validForm()
			tt.mutate(&form)

			_, err := f.svc.Register(context.Background(), form)
			requireValidation(t, err, tt.msg)

			assert.Equal(t, 0, f.store.Creates)
			assert.Equal(t, 0, f.hasher.calls, "hash must not run on invalid input")
			assert.Equal(t, 0, f.store.Lookups, "format checks run before the store read")
		})
	}
}

func TestRegister_MismatchWinsOverBadBirthday(t *testing.T) {
	f := newFixture(t)
	form := validForm()
	form.ConfirmPassword = "other"
	form.Birthday = "not-a-date"

	_, err := f.svc.Register(context.Background(), form)
	requireValidation(t, err, MsgPasswordsDiffer)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validForm())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, validForm())
	requireValidation(t, err, MsgEmailExists)

	assert.Equal(t, 1, f.store.Count("ana@example.com"))
	assert.Equal(t, 1, f.hasher.calls, "duplicate is rejected before hashing")
}

func TestRegister_EmailMatchIsExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validForm())
	require.NoError(t, err)

	form := validForm()
	form.Email = "Ana@example.com"
	_, err = f.svc.Register(ctx, form)
	assert.NoError(t, err)
}

func TestRegister_ConstraintRaceReportsDuplicate(t *testing.T) {
	f := newFixture(t)
	// another submission commits between the lookup and our insert
	f.store.BeforeCreate = func(u model.User) {
		f.store.BeforeCreate = nil
		f.store.Seed(model.User{Email: u.Email, PasswordDigest: "x", CreatedAt: u.CreatedAt})
	}

	_, err := f.svc.Register(context.Background(), validForm())
	requireValidation(t, err, MsgEmailExists)
	assert.Equal(t, 1, f.store.Count("ana@example.com"))
}

func TestRegister_StoreFailures(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("lookup", func(t *testing.T) {
		f := newFixture(t)
		f.store.LookupErr = boom

		_, err := f.svc.Register(context.Background(), validForm())
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, MsgDatabaseError, perr.Message)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, f.hasher.calls)
	})

	t.Run("insert", func(t *testing.T) {
		f := newFixture(t)
		f.store.CreateErr = boom

		_, err := f.svc.Register(context.Background(), validForm())
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, MsgDatabaseError, perr.Message)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, f.store.Creates, "no retry")
		assert.Empty(t, f.pub.topics)
	})

	t.Run("hash", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.err = errors.New("entropy exhausted")

		_, err := f.svc.Register(context.Background(), validForm())
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 0, f.store.Creates)
	})
}

func TestRegister_PublishesEvent(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Register(context.Background(), validForm())
	require.NoError(t, err)

	require.Len(t, f.pub.topics, 1)
	assert.Equal(t, events.TopicUserRegistered, f.pub.topics[0])
	assert.Contains(t, string(f.pub.payloads[0]), `"email":"ana@example.com"`)
	assert.NotContains(t, string(f.pub.payloads[0]), "p@ss1234")
	assert.Equal(t, 1, out.UserID)
}

func TestRegister_PublishFailureKeepsSuccess(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	out, err := f.svc.Register(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, SuccessPage, out.RedirectTo)
	assert.Equal(t, 1, f.store.Count("ana@example.com"))
}

func TestListUsers_NewestFirstAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		form := validForm()
		form.Email = email
		_, err := f.svc.Register(ctx, form)
		require.NoError(t, err)
	}

	first, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	second, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, "c@example.com", first[0].Email)
	assert.Equal(t, "a@example.com", first[2].Email)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].CreatedAt.After(first[i-1].CreatedAt))
	}
}

func TestListUsers_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.ListErr = errors.New("timeout")

	_, err := f.svc.ListUsers(context.Background())
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestProbe(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Probe(context.Background()))

	f.store.PingErr = errors.New("down")
	assert.Error(t, f.svc.Probe(context.Background()))
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(dbtest.NewMemoryStore(), &countingHasher{})
	assert.IsType(t, events.NopPublisher{}, svc.publisher)
	assert.NotNil(t, svc.now)
}
