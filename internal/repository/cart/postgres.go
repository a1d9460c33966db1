package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medusa-storefront/internal/domain"
)

// PostgresRepository stores session pointers in the cart_sessions table.
type PostgresRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgres(pool *pgxpool.Pool, ttl time.Duration) *PostgresRepository {
	return &PostgresRepository{pool: pool, ttl: ttl}
}

func (r *PostgresRepository) Get(ctx context.Context, sessionID string) (string, error) {
	const q = `
SELECT cart_id
FROM cart_sessions
WHERE session_id = $1 AND (expires_at IS NULL OR expires_at > now())
`
	var cartID string
	if err := r.pool.QueryRow(ctx, q, sessionID).Scan(&cartID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return cartID, nil
}

func (r *PostgresRepository) Set(ctx context.Context, sessionID, cartID string) error {
	const q = `
INSERT INTO cart_sessions (session_id, cart_id, updated_at, expires_at)
VALUES ($1, $2, now(), $3)
ON CONFLICT (session_id) DO UPDATE
SET cart_id = EXCLUDED.cart_id,
    updated_at = EXCLUDED.updated_at,
    expires_at = EXCLUDED.expires_at
`
	var expiresAt *time.Time
	if r.ttl > 0 {
		t := time.Now().Add(r.ttl).UTC()
		expiresAt = &t
	}
	_, err := r.pool.Exec(ctx, q, sessionID, cartID, expiresAt)
	return err
}

func (r *PostgresRepository) Clear(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_sessions WHERE session_id = $1`, sessionID)
	return err
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// PurgeExpired deletes expired session rows and reports how many were removed.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
