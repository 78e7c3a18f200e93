package model

import "time"

// Result is the scored outcome of one exam attempt. At most one Result exists
// per (exam, user) pair; the uniqueness is enforced by the database.
type Result struct {
	ID         int64     `json:"id"`
	ExamID     int64     `json:"exam_id"`
	UserID     int64     `json:"user_id"`
	Score      float64   `json:"score"`
	TotalMarks int       `json:"total_marks"`
	CreatedAt  time.Time `json:"created_at"`
}

// ResultSummary is the score breakdown returned to the user after submission.
// Percentage is rendered with two decimal places.
type ResultSummary struct {
	Score      float64 `json:"score"`
	TotalMarks int     `json:"total_marks"`
	Percentage string  `json:"percentage"`
}

// SubmittedAnswer is one (question, selected option) pair of a submission.
type SubmittedAnswer struct {
	QuestionID       int64 `json:"question_id" binding:"required"`
	SelectedOptionID int64 `json:"selected_option_id" binding:"required"`
}

// SubmitExamRequest is the submission payload. StartTime and Duration mirror
// what the client was told at start; the server prefers its own recorded
// start time and the exam's stored duration when validating the deadline.
// Answers may be empty: an auto-submit at time zero with nothing selected is
// still the taker's one legitimate scoring attempt.
type SubmitExamRequest struct {
	ExamID    int64             `json:"exam_id" binding:"required"`
	Answers   []SubmittedAnswer `json:"answers" binding:"dive"`
	StartTime time.Time         `json:"start_time" binding:"required"`
	Duration  int               `json:"duration" binding:"required,min=1"`
}
