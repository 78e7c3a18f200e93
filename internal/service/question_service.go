package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/repository"
)

// Common question errors.
var (
	ErrNoCorrectOption       = errors.New("question must have exactly one correct option")
	ErrTooManyCorrectOptions = errors.New("question must have exactly one correct option")
	ErrBadTrueFalseOptions   = errors.New("true/false question must have exactly two options")
)

// QuestionService handles question authoring and retrieval.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	examRepo     *repository.ExamRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, examRepo *repository.ExamRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, examRepo: examRepo}
}

// AddQuestions validates and inserts a batch of questions for one exam. The
// whole batch is rejected when any question is malformed, and the insert
// itself is transactional, so authoring never leaves half an exam behind.
func (s *QuestionService) AddQuestions(ctx context.Context, examID int64, reqs []model.AddQuestionRequest) ([]model.Question, error) {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		return nil, ErrExamNotFound
	}

	questions := make([]model.Question, 0, len(reqs))
	for i, req := range reqs {
		if model.QuestionType(req.QuestionType) == model.QuestionTypeTrueFalse && len(req.Options) != 2 {
			return nil, fmt.Errorf("question %d: %w", i+1, ErrBadTrueFalseOptions)
		}

		correct := 0
		q := model.Question{
			ExamID:       examID,
			QuestionText: req.QuestionText,
			QuestionType: model.QuestionType(req.QuestionType),
			Marks:        req.Marks,
			Options:      make([]model.Option, 0, len(req.Options)),
		}
		for _, opt := range req.Options {
			if opt.IsCorrect {
				correct++
			}
			q.Options = append(q.Options, model.Option{OptionText: opt.Text, IsCorrect: opt.IsCorrect})
		}
		switch {
		case correct == 0:
			return nil, fmt.Errorf("question %d: %w", i+1, ErrNoCorrectOption)
		case correct > 1:
			return nil, fmt.Errorf("question %d: %w", i+1, ErrTooManyCorrectOptions)
		}
		questions = append(questions, q)
	}

	if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
		if errors.Is(err, repository.ErrMultipleCorrectOptions) {
			return nil, ErrTooManyCorrectOptions
		}
		return nil, fmt.Errorf("create questions: %w", err)
	}
	return questions, nil
}

// ListQuestions retrieves the full questions for an exam, correctness flags
// included. Admin use only.
func (s *QuestionService) ListQuestions(ctx context.Context, examID int64) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// QuestionsForTaker retrieves an exam's questions with correctness stripped.
func (s *QuestionService) QuestionsForTaker(ctx context.Context, examID int64) ([]model.QuestionForTaker, error) {
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]model.QuestionForTaker, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ForTaker())
	}
	return out, nil
}
