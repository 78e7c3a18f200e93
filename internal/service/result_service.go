package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// ErrResultNotFound means no result exists for the requested attempt.
var ErrResultNotFound = errors.New("result not found")

// ResultService exposes recorded results.
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// ListByExam retrieves an exam's results with pagination. Admin view.
func (s *ResultService) ListByExam(ctx context.Context, examID int64, page, perPage int) ([]repository.ExamResultRow, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	rows, total, err := s.resultRepo.ListByExam(ctx, examID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	if rows == nil {
		rows = []repository.ExamResultRow{}
	}
	return rows, total, nil
}

// GetUserResult retrieves one user's result for an exam.
func (s *ResultService) GetUserResult(ctx context.Context, examID, userID int64) (*model.Result, error) {
	res, err := s.resultRepo.GetByExamAndUser(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}
