package registrations

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventreg/internal/shared/utils/response"
	"eventreg/internal/verification"
	"eventreg/pkg/logger"
)

type Controller interface {
	Register(c *gin.Context)
	VerifyEmailExists(c *gin.Context)
	VerifyLimits(c *gin.Context)
	VerifyToken(c *gin.Context)
}

type controller struct {
	service Service
	logger  *logger.Logger
}

func NewController(service Service, l *logger.Logger) Controller {
	return &controller{service: service, logger: l}
}

func (ctrl *controller) Register(c *gin.Context) {
	var req RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := ctrl.service.Register(c.Request.Context(), &req)
	if err != nil {
		ctrl.respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, http.StatusCreated, resp)
}

func (ctrl *controller) VerifyEmailExists(c *gin.Context) {
	email := c.Param("email")

	registered, err := ctrl.service.IsEmailRegistered(c.Request.Context(), email)
	if err != nil {
		ctrl.respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, http.StatusOK, EmailStatusResponse{Email: email, Registered: registered})
}

func (ctrl *controller) VerifyLimits(c *gin.Context) {
	limits, err := ctrl.service.Limits(c.Request.Context())
	if err != nil {
		ctrl.respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, http.StatusOK, limits)
}

func (ctrl *controller) VerifyToken(c *gin.Context) {
	email, err := ctrl.service.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		ctrl.respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, http.StatusOK, VerifyResponse{Message: "Email verified successfully", Email: email})
}

func (ctrl *controller) respondServiceError(c *gin.Context, err error) {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		ctrl.logger.LogHTTPError(c, err, status)
	}
	response.RespondError(c, status, message)
}

// errorResponse maps service errors to the status and message callers see
func errorResponse(err error) (int, string) {
	var capacityErr *CapacityError
	var departmentErr *InvalidDepartmentError

	switch {
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already registered"
	case errors.As(err, &capacityErr):
		if capacityErr.Scope == ScopeGlobal {
			return http.StatusBadRequest, fmt.Sprintf("Global participant limit reached (max %d).", capacityErr.Limit)
		}
		return http.StatusBadRequest, fmt.Sprintf("Department '%s' is full.", capacityErr.Department)
	case errors.As(err, &departmentErr):
		return http.StatusBadRequest, fmt.Sprintf("Invalid department: %s", departmentErr.Name)
	case errors.Is(err, verification.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, ErrParticipantNotFound):
		return http.StatusNotFound, "Email not found"
	case errors.Is(err, ErrVerificationOff):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
