package model

import "time"

// Exam represents a timed multiple-choice exam.
type Exam struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration"`
	TotalMarks      int       `json:"total_marks"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration" binding:"required,min=1,max=480"`
	TotalMarks      int    `json:"total_marks" binding:"required,min=1"`
}

// ExamStartInfo is returned when a user starts an exam attempt. StartTime is
// the server-recorded attempt start; the deadline is derived from it, never
// from a client-reported countdown.
type ExamStartInfo struct {
	ExamID          int64     `json:"exam_id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration"`
	StartTime       time.Time `json:"start_time"`
}
