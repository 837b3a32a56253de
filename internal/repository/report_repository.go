package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// ReportFilter captures listing parameters.
type ReportFilter struct {
	RequesterID  *string
	AssignedToID *string
	Statuses     []domain.ReportStatus
	Limit        int
	Offset       int
}

// ReportRepository encapsulates problem report persistence.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.ProblemReport) error
	Update(ctx context.Context, report *domain.ProblemReport) error
	GetByID(ctx context.Context, id string) (*domain.ProblemReport, error)
	List(ctx context.Context, filter ReportFilter) ([]domain.ProblemReport, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.ProblemReport) error {
	const query = `
        INSERT INTO problem_reports (subject, description, status, priority, requester_id, assigned_to_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		report.Subject,
		report.Description,
		report.Status,
		report.Priority,
		report.RequesterID,
		report.AssignedToID,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
}

func (r *reportRepository) Update(ctx context.Context, report *domain.ProblemReport) error {
	const query = `
        UPDATE problem_reports SET subject=$1, description=$2, status=$3, priority=$4,
            assigned_to_id=$5, completed_at=$6, completed_by=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		report.Subject,
		report.Description,
		report.Status,
		report.Priority,
		report.AssignedToID,
		report.CompletedAt,
		report.CompletedBy,
		report.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.ProblemReport, error) {
	const query = `
        SELECT id, subject, description, status, priority, requester_id, assigned_to_id,
               completed_at, completed_by, created_at, updated_at
        FROM problem_reports WHERE id=$1`
	var report domain.ProblemReport
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.Subject,
		&report.Description,
		&report.Status,
		&report.Priority,
		&report.RequesterID,
		&report.AssignedToID,
		&report.CompletedAt,
		&report.CompletedBy,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.ProblemReport, error) {
	base := `SELECT id, subject, description, status, priority, requester_id, assigned_to_id,
                    completed_at, completed_by, created_at, updated_at
             FROM problem_reports`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProblemReport
	for rows.Next() {
		var report domain.ProblemReport
		if err := rows.Scan(
			&report.ID,
			&report.Subject,
			&report.Description,
			&report.Status,
			&report.Priority,
			&report.RequesterID,
			&report.AssignedToID,
			&report.CompletedAt,
			&report.CompletedBy,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
