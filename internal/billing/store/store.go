package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/database"
)

// Store keeps one JSONB document per user in user_data.
type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, userID string) (*billing.BusinessData, error) {
	const query = `SELECT data FROM user_data WHERE user_id = $1`

	var raw []byte

	if err := s.db.Pool.QueryRow(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("business data for user %s: %w", userID, billing.ErrNotFound)
		}

		return nil, fmt.Errorf("querying business data: %w", err)
	}

	var data billing.BusinessData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding business data: %w", err)
	}

	return &data, nil
}

// Put upserts the whole document keyed by user id.
func (s *Store) Put(ctx context.Context, userID string, data *billing.BusinessData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding business data: %w", err)
	}

	query := `
		INSERT INTO user_data (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`

	if _, err := s.db.Pool.Exec(ctx, query, userID, payload); err != nil {
		return fmt.Errorf("saving business data: %w", err)
	}

	return nil
}
