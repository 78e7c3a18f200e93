package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/examlane/examlane-backend/internal/config"
	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Common exam errors.
var (
	ErrExamNotFound  = errors.New("exam not found")
	ErrExamNotActive = errors.New("exam is not active")
)

// ExamService handles exam catalog and attempt-start business logic.
type ExamService struct {
	examRepo   *repository.ExamRepository
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, resultRepo *repository.ResultRepository, rdb *redis.Client) *ExamService {
	return &ExamService{examRepo: examRepo, resultRepo: resultRepo, rdb: rdb}
}

// GetExam retrieves one exam.
func (s *ExamService) GetExam(ctx context.Context, id int64) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// ListExams retrieves exams with pagination. Takers see only active exams;
// admins see everything.
func (s *ExamService) ListExams(ctx context.Context, activeOnly bool, page, perPage int) ([]model.Exam, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.examRepo.ListPaginated(ctx, activeOnly, perPage, (page-1)*perPage)
}

// CreateExam creates a new exam from an admin request.
func (s *ExamService) CreateExam(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// SetExamActive flips the exam's active flag.
func (s *ExamService) SetExamActive(ctx context.Context, id int64, active bool) error {
	affected, err := s.examRepo.SetActive(ctx, id, active)
	if err != nil {
		return fmt.Errorf("set exam active: %w", err)
	}
	if affected == 0 {
		return ErrExamNotFound
	}
	return nil
}

// DeleteExam removes an exam and its questions.
func (s *ExamService) DeleteExam(ctx context.Context, id int64) error {
	affected, err := s.examRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if affected == 0 {
		return ErrExamNotFound
	}
	return nil
}

// StartExam records the authoritative start of an attempt. The first start
// wins: SETNX means a reload or a second device cannot push the start time
// forward and buy extra minutes. Finished attempts are rejected up front.
func (s *ExamService) StartExam(ctx context.Context, examID, userID int64) (*model.ExamStartInfo, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive {
		return nil, ErrExamNotActive
	}

	attempted, err := s.resultRepo.Exists(ctx, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("check existing result: %w", err)
	}
	if attempted {
		return nil, repository.ErrAlreadyAttempted
	}

	now := time.Now()
	startKey := config.CacheKey.AttemptStartKey(examID, userID)

	created, err := s.rdb.SetNX(ctx, startKey, now.Unix(), 0).Result()
	if err != nil {
		return nil, fmt.Errorf("record start time: %w", err)
	}
	startTime := now
	if !created {
		recorded, err := s.AttemptStartTime(ctx, examID, userID)
		if err != nil {
			return nil, err
		}
		startTime = recorded
	}

	return &model.ExamStartInfo{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		StartTime:       startTime,
	}, nil
}

// AttemptStartTime returns the server-recorded start of an attempt, or a zero
// time when none was recorded (legacy attempts that never hit the start
// endpoint).
func (s *ExamService) AttemptStartTime(ctx context.Context, examID, userID int64) (time.Time, error) {
	val, err := s.rdb.Get(ctx, config.CacheKey.AttemptStartKey(examID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get start time: %w", err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Warn().Str("value", val).Msg("malformed start time in cache, ignoring")
		return time.Time{}, nil
	}
	return time.Unix(unix, 0), nil
}
