package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goleaf/tribal-clone-sub002/internal/constants"
)

// ListOperations returns the player's pending outbound operations.
func (h *Handler) ListOperations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	ops, err := h.svc.ListOperations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchOps})
		return
	}
	c.JSON(http.StatusOK, ops)
}

// CancelOperation turns an in-flight operation around.
func (h *Handler) CancelOperation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	operationID, ok := parseUintParam(c, "operationID")
	if !ok {
		return
	}
	result, err := h.svc.Cancel(operationID, userID)
	if err != nil {
		respondServiceError(c, err, constants.ErrFailedCancel)
		return
	}
	c.JSON(http.StatusOK, gin.H{"return_operation": result.ReturnOperation})
}

// ProcessDue resolves every arrived operation touching the player's
// villages. Clients call it on login and page refresh; it is the only
// thing that advances the world clock.
func (h *Handler) ProcessDue(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	summary, err := h.svc.ProcessDue(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedProcessDue})
		return
	}
	c.JSON(http.StatusOK, summary)
}
