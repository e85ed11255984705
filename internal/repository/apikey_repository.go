package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curadesk/support-platform/internal/domain"
)

// RevokeOutcome distinguishes the idempotent results of a revocation for
// operator feedback. Either way the record ends up (or stays) revoked.
type RevokeOutcome int

const (
	RevokeOutcomeRevoked RevokeOutcome = iota
	RevokeOutcomeAlreadyRevoked
	RevokeOutcomeNotFound
)

// APIKeyRepository is the key store. Rows are insert-only except for the
// revoked_at column; nothing ever deletes a key, and the unique prefix index
// keeps a revoked prefix unusable forever.
type APIKeyRepository interface {
	Insert(ctx context.Context, key *domain.APIKey) error
	GetByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error)
	Revoke(ctx context.Context, prefix string) (RevokeOutcome, error)
	List(ctx context.Context) ([]domain.APIKeySummary, error)
}

type apiKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository instantiates repository.
func NewAPIKeyRepository(pool *pgxpool.Pool) APIKeyRepository {
	return &apiKeyRepository{pool: pool}
}

func (r *apiKeyRepository) Insert(ctx context.Context, key *domain.APIKey) error {
	const query = `
        INSERT INTO api_keys (user_id, prefix, secret_hash)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		key.UserID,
		key.Prefix,
		key.SecretHash,
	).Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPrefixTaken
		}
		return err
	}
	return nil
}

func (r *apiKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	const query = `
        SELECT id, user_id, prefix, secret_hash, created_at, revoked_at
        FROM api_keys WHERE prefix=$1`
	var key domain.APIKey
	if err := r.pool.QueryRow(ctx, query, prefix).Scan(
		&key.ID,
		&key.UserID,
		&key.Prefix,
		&key.SecretHash,
		&key.CreatedAt,
		&key.RevokedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) Revoke(ctx context.Context, prefix string) (RevokeOutcome, error) {
	const query = `
        UPDATE api_keys SET revoked_at=$1
        WHERE prefix=$2 AND revoked_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, time.Now().UTC(), prefix)
	if err != nil {
		return RevokeOutcomeNotFound, err
	}
	if cmd.RowsAffected() > 0 {
		return RevokeOutcomeRevoked, nil
	}

	// No active row matched: tell an already-revoked prefix apart from an
	// unknown one so the operator message is accurate.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM api_keys WHERE prefix=$1)`, prefix,
	).Scan(&exists); err != nil {
		return RevokeOutcomeNotFound, err
	}
	if exists {
		return RevokeOutcomeAlreadyRevoked, nil
	}
	return RevokeOutcomeNotFound, nil
}

func (r *apiKeyRepository) List(ctx context.Context) ([]domain.APIKeySummary, error) {
	// secret_hash is intentionally not selected here.
	const query = `
        SELECT k.id, k.prefix, k.user_id, u.email, k.created_at, k.revoked_at
        FROM api_keys k
        JOIN users u ON u.id = k.user_id
        ORDER BY k.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.APIKeySummary
	for rows.Next() {
		var summary domain.APIKeySummary
		if err := rows.Scan(
			&summary.ID,
			&summary.Prefix,
			&summary.UserID,
			&summary.UserEmail,
			&summary.CreatedAt,
			&summary.RevokedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}
