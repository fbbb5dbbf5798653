package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/services"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	answerRecorder services.AnswerRecorder
	exportService  services.ExportService
}

func NewSessionHandler(
	sessionService services.SessionService,
	answerRecorder services.AnswerRecorder,
	exportService services.ExportService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		answerRecorder: answerRecorder,
		exportService:  exportService,
	}
}

// ===== Student endpoints =====

// StartSession starts a new test session
// @Summary Start test session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.StartSessionRequest true "Test to start"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting test session")

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SubmitAnswer records or resets one answer
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.answerRecorder.SubmitAnswer(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubmitSession finishes a session early
// @Summary Submit session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Submitting test session", "session_id", id)

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.SubmitSession(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession returns the student's view of a session
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} models.SessionView
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	view, err := h.sessionService.GetPresentationForStudent(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) GetProfile(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	profile, err := h.sessionService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ===== Teacher endpoints =====

// ReviewSession returns the teacher's view of a session with correctness data
// @Summary Review session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} models.SessionView
// @Router /sessions/{id}/review [get]
func (h *SessionHandler) ReviewSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	view, err := h.sessionService.GetPresentationForTeacher(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteSession removes a session and reverses its rewards
// @Summary Delete session
// @Tags sessions
// @Param id path uint true "Session ID"
// @Success 200 {object} SuccessResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting test session", "session_id", id)

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.sessionService.DeleteSession(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Session deleted successfully",
	})
}

// RescoreTest rescores every completed session of a test
// @Summary Rescore test
// @Tags tests
// @Param id path uint true "Test ID"
// @Success 200 {object} services.RescoreResult
// @Router /tests/{id}/rescore [post]
func (h *SessionHandler) RescoreTest(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Rescoring test", "test_id", id)

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.RescoreTest(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResults downloads the completed session results of a test as xlsx
// @Summary Export test results
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Router /tests/{id}/results/export [get]
func (h *SessionHandler) ExportResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportTestResults(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="test-%d-results.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ResetQuestionAnswers drops all recorded answers of a question and rescores its test
// @Summary Reset question answers
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 200 {object} services.ResetAnswersResult
// @Router /questions/{id}/answers [delete]
func (h *SessionHandler) ResetQuestionAnswers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Resetting question answers", "question_id", id)

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.ResetQuestionAnswers(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
