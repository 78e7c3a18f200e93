package handler

import (
	"errors"
	"net/http"

	"github.com/examlane/examlane-backend/internal/middleware"
	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/repository"
	"github.com/examlane/examlane-backend/internal/response"
	"github.com/examlane/examlane-backend/internal/service"
	"github.com/examlane/examlane-backend/internal/session"
	"github.com/examlane/examlane-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// PortalHandler handles exam-taker endpoints: catalog, attempt lifecycle,
// progress, and submission.
type PortalHandler struct {
	examService       *service.ExamService
	questionService   *service.QuestionService
	progressService   *service.ProgressService
	submissionService *service.SubmissionService
	resultService     *service.ResultService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	examService *service.ExamService,
	questionService *service.QuestionService,
	progressService *service.ProgressService,
	submissionService *service.SubmissionService,
	resultService *service.ResultService,
) *PortalHandler {
	return &PortalHandler{
		examService:       examService,
		questionService:   questionService,
		progressService:   progressService,
		submissionService: submissionService,
		resultService:     resultService,
	}
}

// ListExams godoc
// GET /api/v1/exams
// Lists active exams only.
func (h *PortalHandler) ListExams(c *gin.Context) {
	page, perPage := parsePagination(c)

	exams, total, err := h.examService.ListExams(c.Request.Context(), true, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, buildPagination(page, perPage, total))
}

// StartExam godoc
// POST /api/v1/exams/:exam_id/start
// Records the server-side start of an attempt. Idempotent: repeated calls
// return the originally recorded start time.
func (h *PortalHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	info, err := h.examService.StartExam(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrExamNotActive):
			response.Fail(c, http.StatusForbidden, response.ErrExamNotActive)
		case errors.Is(err, repository.ErrAlreadyAttempted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyAttempted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, info)
}

// GetExamQuestions godoc
// GET /api/v1/exams/:exam_id/questions
// Returns the exam's questions with correctness stripped. The attempt must
// have been started, so questions cannot be pulled before the clock runs.
func (h *PortalHandler) GetExamQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	started, err := h.examService.AttemptStartTime(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if started.IsZero() {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	questions, err := h.questionService.QuestionsForTaker(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if len(questions) == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// GetProgress godoc
// GET /api/v1/exams/:exam_id/progress
// Loads or initializes the attempt's progress snapshot. The remaining time in
// the response already accounts for wall-clock time spent off-page.
func (h *PortalHandler) GetProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.examService.GetExam(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	snap, err := h.progressService.Open(c.Request.Context(), examID, claims.UserID, exam.DurationMinutes)
	if err != nil {
		if errors.Is(err, session.ErrAlreadySubmitted) {
			response.Fail(c, http.StatusForbidden, response.ErrAlreadyAttempted)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, snap)
}

// saveProgressRequest mirrors the client's working state. The save timestamp
// and start time are stamped server-side.
type saveProgressRequest struct {
	CurrentQuestionIndex int             `json:"current_question_index" binding:"min=0"`
	Answers              map[int64]int64 `json:"answers"`
	TimeLeftSeconds      int             `json:"time_left" binding:"min=0"`
}

// SaveProgress godoc
// PUT /api/v1/exams/:exam_id/progress
func (h *PortalHandler) SaveProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	var req saveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap := &session.Snapshot{
		CurrentQuestionIndex: req.CurrentQuestionIndex,
		Answers:              req.Answers,
		TimeLeftSeconds:      req.TimeLeftSeconds,
	}
	if err := h.progressService.Save(c.Request.Context(), examID, claims.UserID, snap); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SubmitExam godoc
// POST /api/v1/exams/submit
// Grades the submission and records the result. Rejected after the deadline
// (403) and for repeat attempts (409); on any of those outcomes the saved
// progress is cleared so the client starts clean.
func (h *PortalHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrExamNotActive):
			response.Fail(c, http.StatusForbidden, response.ErrExamNotActive)
		case errors.Is(err, service.ErrExamExpired):
			response.Fail(c, http.StatusForbidden, response.ErrExamExpired)
		case errors.Is(err, repository.ErrAlreadyAttempted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyAttempted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// GetMyResult godoc
// GET /api/v1/exams/:exam_id/result
func (h *PortalHandler) GetMyResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := parseIDParam(c, "exam_id")
	if !ok {
		return
	}

	res, err := h.resultService.GetUserResult(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}
