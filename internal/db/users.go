package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/registrar/internal/model"
)

const uniqueViolation = pq.ErrorCode("23505")

// inserts a new user inside a single transaction and returns its ID.
// A duplicate email surfaces as ErrEmailTaken; nothing is visible on failure.
func (s *pgStore) CreateUser(ctx context.Context, u model.User) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin create user transaction")
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	query := `
	INSERT INTO users (birthday, first_name, last_name, email, password, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id;
	`
	var newID int
	err = tx.QueryRowxContext(ctx, query,
		u.Birthday, u.FirstName, u.LastName, u.Email, u.PasswordDigest, u.CreatedAt,
	).Scan(&newID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back create user")
		}
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		log.Error().Err(err).Msg("failed to create user")
		return 0, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit create user")
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("commit user: %w", err)
	}
	return newID, nil
}

// fetches user by exact email. returns nil, ErrUserNotFound if not found.
func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	query := `
	SELECT id, birthday, first_name, last_name, email, password, created_at
	FROM users
	WHERE email = $1;
	`
	err := s.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Msg("failed to get user by email")
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// returns every user, newest first. id breaks ties between equal timestamps.
func (s *pgStore) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.SelectContext(ctx, &users, `
		SELECT id, birthday, first_name, last_name, email, password, created_at
		FROM users
		ORDER BY created_at DESC, id DESC
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// runs a trivial query so the probe exercises a real round trip.
func (s *pgStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
