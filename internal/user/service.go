package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpsertGoogle(ctx context.Context, u *User) (*User, error)
}

type Service struct {
	repo    Repository
	limiter *LoginLimiter
	log     zerolog.Logger
}

func NewService(repo Repository, limiter *LoginLimiter, log zerolog.Logger) *Service {
	return &Service{repo: repo, limiter: limiter, log: log}
}

type SignUpParams struct {
	Email       string
	Password    string
	DisplayName string
}

func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*User, error) {
	email := normalizeEmail(params.Email)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidInput, params.Email)
	}

	if params.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(params.DisplayName),
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID).Msg("user signed up")

	return u, nil
}

// Login checks a local password. clientKey identifies the caller for
// throttling.
func (s *Service) Login(ctx context.Context, clientKey, email, password string) (*User, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		return nil, ErrRateLimited
	}

	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// LoginGoogle creates the user on first sign-in or links the Google
// identity to an existing account with the same email.
func (s *Service) LoginGoogle(ctx context.Context, profile GoogleProfile) (*User, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: incomplete google profile", ErrInvalidInput)
	}

	u, err := s.repo.UpsertGoogle(ctx, &User{
		ID:          uuid.NewString(),
		Email:       normalizeEmail(profile.Email),
		DisplayName: profile.Name,
		AvatarURL:   profile.Picture,
		GoogleID:    profile.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("saving google user: %w", err)
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
