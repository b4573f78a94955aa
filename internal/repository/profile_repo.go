package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ghostwriter-backend/internal/models"
)

// ErrNoCredits is returned by ConsumeCredit when the balance is already
// zero; the conditional update guarantees the balance never goes negative
// even when concurrent requests race past the pre-check.
var ErrNoCredits = errors.New("no credits remaining")

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT id, email, role, credits, created_at FROM profiles WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.Role, &p.Credits, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT id, email, role, credits, created_at FROM profiles WHERE email = $1`

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.ID, &p.Email, &p.Role, &p.Credits, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ConsumeCredit atomically decrements the balance by one and returns the
// remaining credits. The WHERE clause makes the decrement conditional:
// if two requests race on a balance of one, exactly one of them wins.
func (r *ProfileRepo) ConsumeCredit(ctx context.Context, id uuid.UUID) (int, error) {
	var remaining int
	err := r.pool.QueryRow(ctx,
		`UPDATE profiles SET credits = credits - 1 WHERE id = $1 AND credits > 0 RETURNING credits`,
		id,
	).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoCredits
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume credit: %w", err)
	}
	return remaining, nil
}

// AddCredits increments the balance, used by the payment webhook only.
func (r *ProfileRepo) AddCredits(ctx context.Context, id uuid.UUID, amount int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET credits = credits + $2 WHERE id = $1`,
		id, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
