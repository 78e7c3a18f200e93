package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "MCQ"
	QuestionTypeTrueFalse QuestionType = "TRUE_FALSE"
)

// Question represents a single exam question with its options.
type Question struct {
	ID           int64        `json:"id"`
	ExamID       int64        `json:"exam_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"type"`
	Marks        int          `json:"marks"`
	Options      []Option     `json:"options"`
}

// Option is one selectable answer for a question. IsCorrect is never
// serialized on student-facing payloads (see QuestionForTaker).
type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// QuestionForTaker is a question as shown to an exam taker: the correctness
// flag is stripped from every option.
type QuestionForTaker struct {
	ID           int64            `json:"id"`
	ExamID       int64            `json:"exam_id"`
	QuestionText string           `json:"question_text"`
	QuestionType QuestionType     `json:"type"`
	Marks        int              `json:"marks"`
	Options      []OptionForTaker `json:"options"`
}

// OptionForTaker is an option without the correctness flag.
type OptionForTaker struct {
	ID         int64  `json:"id"`
	OptionText string `json:"option_text"`
}

// ForTaker strips correctness flags from a question.
func (q Question) ForTaker() QuestionForTaker {
	out := QuestionForTaker{
		ID:           q.ID,
		ExamID:       q.ExamID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Marks:        q.Marks,
		Options:      make([]OptionForTaker, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		out.Options = append(out.Options, OptionForTaker{ID: o.ID, OptionText: o.OptionText})
	}
	return out
}

// AddQuestionRequest is one question in a bulk authoring payload. The owning
// exam comes from the URL path, not the payload.
type AddQuestionRequest struct {
	QuestionText string             `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType string             `json:"type" binding:"required,oneof=MCQ TRUE_FALSE"`
	Marks        int                `json:"marks" binding:"required,min=1"`
	Options      []AddOptionRequest `json:"options" binding:"required,min=2,dive"`
}

// AddOptionRequest is one option in a question authoring payload.
type AddOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
}
