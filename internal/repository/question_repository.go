package repository

import (
	"context"
	"errors"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMultipleCorrectOptions surfaces the partial unique index that enforces
// at most one correct option per question.
var ErrMultipleCorrectOptions = errors.New("question already has a correct option")

// AnswerKeyEntry is the scoring view of one question: its weight and the
// identifier of its correct option (0 when the question has none).
type AnswerKeyEntry struct {
	Marks           int
	CorrectOptionID int64
}

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions for an exam together with their options.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.exam_id, q.question_text, q.question_type, q.marks,
		        o.id, o.option_text, o.is_correct
		 FROM questions q
		 LEFT JOIN options o ON o.question_id = q.id
		 WHERE q.exam_id = $1
		 ORDER BY q.id, o.id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[int64]int)

	for rows.Next() {
		var q model.Question
		var optID *int64
		var optText *string
		var optCorrect *bool
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.QuestionType, &q.Marks,
			&optID, &optText, &optCorrect); err != nil {
			return nil, err
		}

		i, seen := index[q.ID]
		if !seen {
			questions = append(questions, q)
			i = len(questions) - 1
			index[q.ID] = i
		}
		if optID != nil {
			questions[i].Options = append(questions[i].Options, model.Option{
				ID:         *optID,
				QuestionID: q.ID,
				OptionText: *optText,
				IsCorrect:  *optCorrect,
			})
		}
	}
	return questions, rows.Err()
}

// AnswerKey loads the scoring key for an exam: marks and correct option per
// question. Questions without a correct option map to CorrectOptionID 0,
// which can never match a real submitted option.
func (r *QuestionRepository) AnswerKey(ctx context.Context, examID int64) (map[int64]AnswerKeyEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.marks, COALESCE(o.id, 0)
		 FROM questions q
		 LEFT JOIN options o ON o.question_id = q.id AND o.is_correct
		 WHERE q.exam_id = $1`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[int64]AnswerKeyEntry)
	for rows.Next() {
		var qID int64
		var entry AnswerKeyEntry
		if err := rows.Scan(&qID, &entry.Marks, &entry.CorrectOptionID); err != nil {
			return nil, err
		}
		key[qID] = entry
	}
	return key, rows.Err()
}

// CreateBatch inserts questions with their options in a single transaction,
// so a malformed question late in the payload leaves nothing behind.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, question_text, question_type, marks)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			q.ExamID, q.QuestionText, q.QuestionType, q.Marks,
		).Scan(&q.ID); err != nil {
			return err
		}

		for j := range q.Options {
			o := &q.Options[j]
			o.QuestionID = q.ID
			if err := tx.QueryRow(ctx,
				`INSERT INTO options (question_id, option_text, is_correct)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				o.QuestionID, o.OptionText, o.IsCorrect,
			).Scan(&o.ID); err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return ErrMultipleCorrectOptions
				}
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
