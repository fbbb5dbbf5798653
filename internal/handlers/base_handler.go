package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/services"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/utils"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries what every handler shares
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// handleServiceError maps service error kinds to HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch services.ErrorKind(err) {
	case services.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationDetails(err),
		})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case services.KindConflict:
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case services.KindForbidden:
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied", Details: err.Error()})
	default:
		utils.GetLogger(c, h.logger).Error("Internal server error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func validationDetails(err error) interface{} {
	var requestErrs validator.ValidationErrors
	if errors.As(err, &requestErrs) {
		return requestErrs
	}
	var fieldErr *services.ValidationError
	if errors.As(err, &fieldErr) {
		return []*services.ValidationError{fieldErr}
	}
	return err.Error()
}

func (h *BaseHandler) userID(c *gin.Context) (string, bool) {
	id, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return id, true
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "ID must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}
