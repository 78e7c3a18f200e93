package service

import (
	"testing"
	"time"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/repository"
)

func answerKey() map[int64]repository.AnswerKeyEntry {
	return map[int64]repository.AnswerKeyEntry{
		1: {Marks: 2, CorrectOptionID: 11},
		2: {Marks: 3, CorrectOptionID: 22},
		3: {Marks: 5, CorrectOptionID: 33},
	}
}

func TestScoreAnswers(t *testing.T) {
	tests := []struct {
		name      string
		answers   []model.SubmittedAnswer
		wantScore float64
		wantTotal int
		wantPct   string
	}{
		{
			name: "all correct",
			answers: []model.SubmittedAnswer{
				{QuestionID: 1, SelectedOptionID: 11},
				{QuestionID: 2, SelectedOptionID: 22},
				{QuestionID: 3, SelectedOptionID: 33},
			},
			wantScore: 10,
			wantTotal: 10,
			wantPct:   "100.00",
		},
		{
			name: "partially correct",
			answers: []model.SubmittedAnswer{
				{QuestionID: 1, SelectedOptionID: 11},
				{QuestionID: 2, SelectedOptionID: 99},
				{QuestionID: 3, SelectedOptionID: 33},
			},
			wantScore: 7,
			wantTotal: 10,
			wantPct:   "70.00",
		},
		{
			name:      "no answers",
			answers:   nil,
			wantScore: 0,
			wantTotal: 0,
			wantPct:   "0.00",
		},
		{
			// Only the answered-and-existing questions count toward the total.
			name: "unknown question skipped",
			answers: []model.SubmittedAnswer{
				{QuestionID: 999, SelectedOptionID: 11},
				{QuestionID: 1, SelectedOptionID: 11},
			},
			wantScore: 2,
			wantTotal: 2,
			wantPct:   "100.00",
		},
		{
			name: "only unknown questions",
			answers: []model.SubmittedAnswer{
				{QuestionID: 888, SelectedOptionID: 1},
				{QuestionID: 999, SelectedOptionID: 2},
			},
			wantScore: 0,
			wantTotal: 0,
			wantPct:   "0.00",
		},
		{
			name: "duplicate question first answer wins",
			answers: []model.SubmittedAnswer{
				{QuestionID: 1, SelectedOptionID: 99},
				{QuestionID: 1, SelectedOptionID: 11},
			},
			wantScore: 0,
			wantTotal: 2,
			wantPct:   "0.00",
		},
		{
			name: "duplicate correct then wrong counts marks once",
			answers: []model.SubmittedAnswer{
				{QuestionID: 3, SelectedOptionID: 33},
				{QuestionID: 3, SelectedOptionID: 99},
			},
			wantScore: 5,
			wantTotal: 5,
			wantPct:   "100.00",
		},
		{
			name: "wrong answer still contributes its marks to the total",
			answers: []model.SubmittedAnswer{
				{QuestionID: 1, SelectedOptionID: 11},
				{QuestionID: 2, SelectedOptionID: 99},
			},
			wantScore: 2,
			wantTotal: 5,
			wantPct:   "40.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreAnswers(tt.answers, answerKey())
			if got.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.TotalMarks != tt.wantTotal {
				t.Errorf("total marks = %d, want %d", got.TotalMarks, tt.wantTotal)
			}
			if got.Percentage != tt.wantPct {
				t.Errorf("percentage = %q, want %q", got.Percentage, tt.wantPct)
			}
		})
	}
}

func TestScoreAnswersTwoQuestionExam(t *testing.T) {
	key := map[int64]repository.AnswerKeyEntry{
		1: {Marks: 5, CorrectOptionID: 101},
		2: {Marks: 10, CorrectOptionID: 205},
	}

	// Both questions answered, one correctly.
	got := scoreAnswers([]model.SubmittedAnswer{
		{QuestionID: 1, SelectedOptionID: 101},
		{QuestionID: 2, SelectedOptionID: 999},
	}, key)
	if got.Score != 5 || got.TotalMarks != 15 || got.Percentage != "33.33" {
		t.Errorf("got %v/%d %q, want 5/15 %q", got.Score, got.TotalMarks, got.Percentage, "33.33")
	}

	// Only one question submitted: the unanswered one does not dilute the
	// percentage.
	got = scoreAnswers([]model.SubmittedAnswer{
		{QuestionID: 1, SelectedOptionID: 101},
	}, key)
	if got.Score != 5 || got.TotalMarks != 5 || got.Percentage != "100.00" {
		t.Errorf("got %v/%d %q, want 5/5 %q", got.Score, got.TotalMarks, got.Percentage, "100.00")
	}
}

func TestScoreAnswersQuestionWithoutCorrectOption(t *testing.T) {
	// CorrectOptionID 0 marks a question with no correct option; nothing the
	// taker selects may earn its marks, but the question still counts toward
	// the total.
	key := map[int64]repository.AnswerKeyEntry{
		1: {Marks: 4, CorrectOptionID: 0},
	}
	got := scoreAnswers([]model.SubmittedAnswer{{QuestionID: 1, SelectedOptionID: 7}}, key)
	if got.Score != 0 {
		t.Errorf("score = %v, want 0", got.Score)
	}
	if got.TotalMarks != 4 {
		t.Errorf("total marks = %d, want 4", got.TotalMarks)
	}
}

func TestExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	grace := 2 * time.Second

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well within time", start.Add(10 * time.Minute), false},
		{"exactly at deadline", start.Add(30 * time.Minute), false},
		{"inside grace window", start.Add(30*time.Minute + time.Second), false},
		{"at deadline plus grace", start.Add(30*time.Minute + grace), false},
		{"past grace window", start.Add(30*time.Minute + grace + time.Millisecond), true},
		{"long past deadline", start.Add(2 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expired(tt.now, start, 30, grace); got != tt.want {
				t.Errorf("expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		score float64
		total int
		want  string
	}{
		{10, 10, "100.00"},
		{0, 10, "0.00"},
		{1, 3, "33.33"},
		{5, 0, "0.00"},
		{5, -1, "0.00"},
		{7.5, 10, "75.00"},
	}
	for _, tt := range tests {
		if got := formatPercentage(tt.score, tt.total); got != tt.want {
			t.Errorf("formatPercentage(%v, %d) = %q, want %q", tt.score, tt.total, got, tt.want)
		}
	}
}
