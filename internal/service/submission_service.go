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
	"github.com/examlane/examlane-backend/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrExamExpired means the submission arrived after the attempt's deadline
// plus the configured grace window.
var ErrExamExpired = errors.New("exam time expired")

// SubmissionService orchestrates exam submission: deadline validation,
// scoring, the one-attempt guard, and session cleanup.
type SubmissionService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	progressRepo *repository.ProgressRepository
	tracker      *session.Tracker
	rdb          *redis.Client
	grace        time.Duration
	now          func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
	progressRepo *repository.ProgressRepository,
	tracker *session.Tracker,
	rdb *redis.Client,
	grace time.Duration,
) *SubmissionService {
	return &SubmissionService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		progressRepo: progressRepo,
		tracker:      tracker,
		rdb:          rdb,
		grace:        grace,
		now:          time.Now,
	}
}

// Submit grades and records one exam attempt.
//
// The deadline check runs first and uses the server-recorded start time when
// one exists; the client-reported start is only a fallback for attempts that
// predate the start endpoint. The duration is always the exam's stored one.
// The result insert is the atomic duplicate guard: a second submission, even
// a concurrent one, gets ErrAlreadyAttempted. Any terminal outcome clears the
// attempt's saved progress.
func (s *SubmissionService) Submit(ctx context.Context, userID int64, req *model.SubmitExamRequest) (*model.ResultSummary, error) {
	exam, err := s.examRepo.GetByID(ctx, req.ExamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.IsActive {
		return nil, ErrExamNotActive
	}

	start := s.effectiveStartTime(ctx, req.ExamID, userID, req.StartTime)
	if expired(s.now(), start, exam.DurationMinutes, s.grace) {
		s.cleanup(ctx, req.ExamID, userID)
		return nil, ErrExamExpired
	}

	key, err := s.questionRepo.AnswerKey(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}

	summary := scoreAnswers(req.Answers, key)

	result := &model.Result{
		ExamID:     req.ExamID,
		UserID:     userID,
		Score:      summary.Score,
		TotalMarks: summary.TotalMarks,
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		if errors.Is(err, repository.ErrAlreadyAttempted) {
			s.cleanup(ctx, req.ExamID, userID)
			return nil, repository.ErrAlreadyAttempted
		}
		return nil, fmt.Errorf("record result: %w", err)
	}

	s.cleanup(ctx, req.ExamID, userID)
	return &summary, nil
}

// effectiveStartTime resolves the attempt's start: the server-recorded time
// wins, the client-reported one is the fallback.
func (s *SubmissionService) effectiveStartTime(ctx context.Context, examID, userID int64, clientStart time.Time) time.Time {
	val, err := s.rdb.Get(ctx, config.CacheKey.AttemptStartKey(examID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return clientStart
	}
	if err != nil {
		log.Warn().Err(err).Int64("exam_id", examID).Int64("user_id", userID).
			Msg("start time lookup failed, trusting client start")
		return clientStart
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return clientStart
	}
	return time.Unix(unix, 0)
}

// expired reports whether now is past start + duration + grace.
func expired(now, start time.Time, durationMinutes int, grace time.Duration) bool {
	deadline := start.Add(time.Duration(durationMinutes)*time.Minute + grace)
	return now.After(deadline)
}

// cleanup clears all per-attempt session state. Best effort: a failed cleanup
// never changes the submission outcome, it only leaves stale keys to expire.
func (s *SubmissionService) cleanup(ctx context.Context, examID, userID int64) {
	if err := s.tracker.Finalize(ctx, examID, userID); err != nil {
		log.Warn().Err(err).Int64("exam_id", examID).Int64("user_id", userID).
			Msg("failed to clear session state")
	}
	if err := s.progressRepo.Delete(ctx, examID, userID); err != nil {
		log.Warn().Err(err).Int64("exam_id", examID).Int64("user_id", userID).
			Msg("failed to clear durable progress")
	}
}
