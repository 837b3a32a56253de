package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// ReportMessageRepository manages report conversation threads.
type ReportMessageRepository interface {
	Create(ctx context.Context, msg *domain.ReportMessage) error
	ListByReport(ctx context.Context, reportID string) ([]domain.ReportMessage, error)
}

type reportMessageRepository struct {
	pool *pgxpool.Pool
}

// NewReportMessageRepository builds repository.
func NewReportMessageRepository(pool *pgxpool.Pool) ReportMessageRepository {
	return &reportMessageRepository{pool: pool}
}

func (r *reportMessageRepository) Create(ctx context.Context, msg *domain.ReportMessage) error {
	const query = `
        INSERT INTO report_messages (report_id, author_id, message, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.ReportID,
		msg.AuthorID,
		msg.Message,
		msg.IsInternal,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *reportMessageRepository) ListByReport(ctx context.Context, reportID string) ([]domain.ReportMessage, error) {
	const query = `
        SELECT id, report_id, author_id, message, is_internal, created_at
        FROM report_messages WHERE report_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReportMessage
	for rows.Next() {
		var msg domain.ReportMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.ReportID,
			&msg.AuthorID,
			&msg.Message,
			&msg.IsInternal,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
