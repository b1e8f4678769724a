package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrJamesThe3rd/invoiceflow/internal/database"
	"github.com/MrJamesThe3rd/invoiceflow/internal/user"
)

type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

const selectUserColumns = `id, email, display_name, avatar_url, COALESCE(password_hash, ''), COALESCE(google_id, ''), created_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User

	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.PasswordHash, &u.GoogleID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, display_name, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := s.db.Pool.QueryRow(ctx, query, u.ID, u.Email, u.DisplayName, u.AvatarURL, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%s: %w", u.Email, user.ErrEmailTaken)
		}

		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, err
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.db.Pool.QueryRow(ctx, query, email))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	return u, err
}

// UpsertGoogle inserts the user or, when the email exists, links the Google
// id and refreshes the avatar. The stored row is returned.
func (s *Store) UpsertGoogle(ctx context.Context, u *user.User) (*user.User, error) {
	query := `
		INSERT INTO users (id, email, display_name, avatar_url, google_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			google_id = EXCLUDED.google_id,
			avatar_url = EXCLUDED.avatar_url,
			display_name = COALESCE(NULLIF(users.display_name, ''), EXCLUDED.display_name),
			updated_at = NOW()
		RETURNING ` + selectUserColumns

	got, err := scanUser(s.db.Pool.QueryRow(ctx, query, u.ID, u.Email, u.DisplayName, u.AvatarURL, u.GoogleID))
	if err != nil {
		return nil, fmt.Errorf("upserting google user: %w", err)
	}

	return got, nil
}
