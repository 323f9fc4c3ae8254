// exposes a Store interface that is passed to the registration service
package db

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/registrar/internal/model"
)

var (
	// returned by GetUserByEmail when no row matches.
	ErrUserNotFound = errors.New("user not found")
	// returned by CreateUser when the users.email unique constraint rejects the row.
	ErrEmailTaken = errors.New("email already registered")
)

type Store interface {
	// user functions
	CreateUser(ctx context.Context, u model.User) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// connectivity probe
	Ping(ctx context.Context) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}
