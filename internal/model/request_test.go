package model

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

// bindJSON decodes a payload and runs Gin's struct validation on it, the same
// pair of steps ShouldBindJSON performs on a request body.
func bindJSON(t *testing.T, payload string, dst interface{}) error {
	t.Helper()
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	return binding.Validator.ValidateStruct(dst)
}

func TestSubmitExamRequestAllowsEmptyAnswers(t *testing.T) {
	payload := `{"exam_id": 1, "answers": [], "start_time": "2026-03-01T09:00:00Z", "duration": 30}`

	var req SubmitExamRequest
	if err := bindJSON(t, payload, &req); err != nil {
		t.Fatalf("empty answers rejected: %v", err)
	}
	if len(req.Answers) != 0 {
		t.Errorf("answers = %v, want empty", req.Answers)
	}
}

func TestSubmitExamRequestRequiresExamID(t *testing.T) {
	payload := `{"answers": [], "start_time": "2026-03-01T09:00:00Z", "duration": 30}`

	var req SubmitExamRequest
	if err := bindJSON(t, payload, &req); err == nil {
		t.Fatal("expected validation error for missing exam_id")
	}
}

func TestSubmitExamRequestValidatesAnswerEntries(t *testing.T) {
	payload := `{"exam_id": 1, "answers": [{"question_id": 0, "selected_option_id": 5}], "start_time": "2026-03-01T09:00:00Z", "duration": 30}`

	var req SubmitExamRequest
	if err := bindJSON(t, payload, &req); err == nil {
		t.Fatal("expected validation error for zero question_id")
	}
}

func TestAddQuestionRequestBinding(t *testing.T) {
	// The owning exam is not part of the payload.
	payload := `{"question_text": "What is 2+2?", "type": "MCQ", "marks": 2,
		"options": [{"text": "3"}, {"text": "4", "is_correct": true}]}`

	var req AddQuestionRequest
	if err := bindJSON(t, payload, &req); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}
}
