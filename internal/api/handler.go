package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goleaf/tribal-clone-sub002/internal/constants"
	"github.com/goleaf/tribal-clone-sub002/internal/service"
)

// Handler carries the dependencies shared by the game endpoints.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// parseUintParam reads a numeric path parameter.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return 0, false
	}
	return uint(n), true
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
// Unknown errors become a 500 with the given fallback message.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrVillageNotFound),
		errors.Is(err, service.ErrOperationNotFound),
		errors.Is(err, service.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, service.ErrNotYourVillage),
		errors.Is(err, service.ErrNotYourOperation),
		errors.Is(err, service.ErrReportAccess):
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, service.ErrAlreadyResolved),
		errors.Is(err, service.ErrCancelTooLate),
		errors.Is(err, service.ErrNotDue):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, service.ErrNoUnitsSelected),
		errors.Is(err, service.ErrInsufficientGarrison),
		errors.Is(err, service.ErrSelfTarget),
		errors.Is(err, service.ErrNonScoutInSpy),
		errors.Is(err, service.ErrNoRallyPoint),
		errors.Is(err, service.ErrUnknownUnit),
		errors.Is(err, service.ErrUnknownKind):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: fallback})
	}
}
