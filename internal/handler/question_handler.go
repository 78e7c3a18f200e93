package handler

import (
	"errors"
	"net/http"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/response"
	"github.com/examlane/examlane-backend/internal/service"
	"github.com/examlane/examlane-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// QuestionHandler handles admin question authoring endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// AddQuestions godoc
// POST /api/v1/admin/exams/:exam_id/questions
// Adds a batch of questions. The whole batch is rejected when any question is
// malformed.
func (h *QuestionHandler) AddQuestions(c *gin.Context) {
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	var req struct {
		Questions []model.AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.AddQuestions(c.Request.Context(), examID, req.Questions)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNoCorrectOption),
			errors.Is(err, service.ErrTooManyCorrectOptions),
			errors.Is(err, service.ErrBadTrueFalseOptions):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrBadQuestionSet,
				map[string]string{"detail": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:exam_id/questions
// Returns the full questions including correctness flags.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	questions, err := h.questionService.ListQuestions(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}
