package repository

import (
	"context"
	"errors"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyAttempted means a result row already exists for this (exam, user)
// pair. Surfaced by the conditional insert in Create, never by a separate
// read-then-write check, so two racing submissions cannot both score.
var ErrAlreadyAttempted = errors.New("exam already attempted")

// ResultRepository handles result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a result for an attempt. The UNIQUE (exam_id, user_id)
// constraint plus ON CONFLICT DO NOTHING makes the insert the atomic
// duplicate check: when no row comes back, someone already scored.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (exam_id, user_id, score, total_marks)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, user_id) DO NOTHING
		 RETURNING id, created_at`,
		res.ExamID, res.UserID, res.Score, res.TotalMarks,
	).Scan(&res.ID, &res.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyAttempted
	}
	return err
}

// Exists reports whether a result exists for the (exam, user) pair. Used by
// the exam-start endpoint to reject finished attempts early; the Create
// conditional insert remains the authoritative guard.
func (r *ResultRepository) Exists(ctx context.Context, examID, userID int64) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM results WHERE exam_id = $1 AND user_id = $2)`,
		examID, userID).Scan(&found)
	return found, err
}

// GetByExamAndUser retrieves the result for one attempt.
func (r *ResultRepository) GetByExamAndUser(ctx context.Context, examID, userID int64) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, user_id, score, total_marks, created_at
		 FROM results WHERE exam_id = $1 AND user_id = $2`,
		examID, userID,
	).Scan(&res.ID, &res.ExamID, &res.UserID, &res.Score, &res.TotalMarks, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExamResultRow combines a user's identity with their score for admin listings.
type ExamResultRow struct {
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Score      float64   `json:"score"`
	TotalMarks int       `json:"total_marks"`
	CreatedAt  string    `json:"submitted_at"`
}

// ListByExam retrieves all results for an exam with pagination.
func (r *ResultRepository) ListByExam(ctx context.Context, examID int64, limit, offset int) ([]ExamResultRow, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE exam_id = $1`, examID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT res.user_id, u.name, u.email, res.score, res.total_marks, res.created_at::text
		 FROM results res
		 JOIN users u ON u.id = res.user_id
		 WHERE res.exam_id = $1
		 ORDER BY res.created_at DESC
		 LIMIT $2 OFFSET $3`, examID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []ExamResultRow
	for rows.Next() {
		var row ExamResultRow
		if err := rows.Scan(&row.UserID, &row.Name, &row.Email, &row.Score, &row.TotalMarks, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}
