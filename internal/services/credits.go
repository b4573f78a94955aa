package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/repository"
)

type creditStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	ConsumeCredit(ctx context.Context, id uuid.UUID) (int, error)
	AddCredits(ctx context.Context, id uuid.UUID, amount int) error
}

// CreditService is the metering gate around generation. Authorize runs
// before the model call is started; Settle runs exactly once, on terminal
// stream success only — a failed or abandoned stream is never charged.
type CreditService struct {
	store  creditStore
	logger zerolog.Logger
}

func NewCreditService(store creditStore, logger zerolog.Logger) *CreditService {
	return &CreditService{store: store, logger: logger}
}

// Authorize loads the account and decides whether a generation attempt
// may start. Admins always pass; everyone else needs a positive balance.
func (s *CreditService) Authorize(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile.IsAdmin() {
		return profile, nil
	}
	if profile.Credits < 1 {
		return nil, ErrInsufficientCredits
	}
	return profile, nil
}

// Settle deducts one credit after a completed generation. Admin accounts
// are never charged. The decrement is conditional at the storage layer,
// so concurrent requests that both passed Authorize on a balance of one
// cannot drive it negative; the loser settles as a logged no-op.
func (s *CreditService) Settle(ctx context.Context, profile *models.Profile) {
	if profile.IsAdmin() {
		return
	}

	remaining, err := s.store.ConsumeCredit(ctx, profile.ID)
	if errors.Is(err, repository.ErrNoCredits) {
		s.logger.Warn().Str("user_id", profile.ID.String()).Msg("settle raced to zero balance, no deduction")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", profile.ID.String()).Msg("credit settlement failed")
		return
	}

	s.logger.Info().Str("user_id", profile.ID.String()).Int("remaining", remaining).Msg("credit settled")
}

// Grant adds credits to an account, used by the payment webhook.
func (s *CreditService) Grant(ctx context.Context, userID uuid.UUID, amount int) error {
	if err := s.store.AddCredits(ctx, userID, amount); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID.String()).Int("amount", amount).Msg("credits granted")
	return nil
}

// FindByID loads an account without any balance check.
func (s *CreditService) FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, ErrUserNotFound
	}
	return profile, err
}

// FindByEmail resolves an account for webhook events that arrive without
// a direct user id.
func (s *CreditService) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, ErrUserNotFound
	}
	return profile, err
}
