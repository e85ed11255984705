package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curadesk/support-platform/internal/domain"
)

// AttachmentRepository persists bundle metadata. The stored bytes live on disk
// under the archive root; only the handle is recorded here.
type AttachmentRepository interface {
	Create(ctx context.Context, bundle *domain.AttachmentBundle) error
	GetByTicket(ctx context.Context, ticketID int64) (*domain.AttachmentBundle, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.AttachmentBundle, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository instantiates repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, bundle *domain.AttachmentBundle) error {
	const query = `
        INSERT INTO attachment_bundles (ticket_id, storage_key, file_name, original_size, entry_count)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		bundle.TicketID,
		bundle.StorageKey,
		bundle.FileName,
		bundle.OriginalSize,
		bundle.EntryCount,
	).Scan(&bundle.ID, &bundle.CreatedAt)
}

// GetByTicket returns the most recent bundle for the ticket, the one created
// with the ticket submission in the base flow.
func (r *attachmentRepository) GetByTicket(ctx context.Context, ticketID int64) (*domain.AttachmentBundle, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, original_size, entry_count, created_at
        FROM attachment_bundles WHERE ticket_id=$1
        ORDER BY created_at DESC LIMIT 1`
	var bundle domain.AttachmentBundle
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&bundle.ID,
		&bundle.TicketID,
		&bundle.StorageKey,
		&bundle.FileName,
		&bundle.OriginalSize,
		&bundle.EntryCount,
		&bundle.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bundle, nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.AttachmentBundle, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, original_size, entry_count, created_at
        FROM attachment_bundles WHERE ticket_id=$1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttachmentBundle
	for rows.Next() {
		var bundle domain.AttachmentBundle
		if err := rows.Scan(
			&bundle.ID,
			&bundle.TicketID,
			&bundle.StorageKey,
			&bundle.FileName,
			&bundle.OriginalSize,
			&bundle.EntryCount,
			&bundle.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, bundle)
	}
	return result, rows.Err()
}
