package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=billing
type Repository interface {
	Get(ctx context.Context, userID string) (*BusinessData, error)
	Put(ctx context.Context, userID string, data *BusinessData) error
}

// Service is the only path to the store. Writes always carry the whole
// document; concurrent writers for one user resolve as last writer wins.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Load returns the owner's document, seeding and storing a default one on
// first access.
func (s *Service) Load(ctx context.Context, owner Owner) (*BusinessData, error) {
	data, err := s.repo.Get(ctx, owner.ID)
	if err == nil {
		return data, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading business data: %w", err)
	}

	data = Seed(owner)
	if err := s.repo.Put(ctx, owner.ID, data); err != nil {
		return nil, fmt.Errorf("seeding business data: %w", err)
	}

	s.log.Info().Str("user_id", owner.ID).Msg("seeded business data")

	return data, nil
}

// Save replaces the stored document.
func (s *Service) Save(ctx context.Context, userID string, data *BusinessData) error {
	if data == nil {
		return fmt.Errorf("%w: business data is required", ErrInvalidInput)
	}

	if err := s.repo.Put(ctx, userID, data); err != nil {
		return fmt.Errorf("saving business data: %w", err)
	}

	return nil
}

// Mutate reads the whole document, applies fn and writes the whole document
// back. Nothing is written when fn fails.
func (s *Service) Mutate(ctx context.Context, owner Owner, fn func(*BusinessData) error) (*BusinessData, error) {
	data, err := s.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := fn(data); err != nil {
		return nil, err
	}

	if err := s.Save(ctx, owner.ID, data); err != nil {
		return nil, err
	}

	return data, nil
}
