package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goleaf/tribal-clone-sub002/internal/constants"
)

// ListReports returns the player's inbox, newest first. Accepts an
// optional ?limit=N (capped at 100).
func (h *Handler) ListReports(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	reports, err := h.svc.ListReports(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchReports})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport returns one inbox entry with its full payload.
func (h *Handler) GetReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	reportID, ok := parseUintParam(c, "reportID")
	if !ok {
		return
	}
	report, err := h.svc.GetReport(reportID, userID)
	if err != nil {
		respondServiceError(c, err, constants.ErrFailedFetchReports)
		return
	}
	c.JSON(http.StatusOK, report)
}
