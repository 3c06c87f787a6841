package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goleaf/tribal-clone-sub002/internal/constants"
	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/service"
)

// ListVillages returns the authenticated player's villages.
func (h *Handler) ListVillages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	villages, err := h.svc.ListVillages(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchVillage})
		return
	}
	c.JSON(http.StatusOK, villages)
}

// GetVillage returns one village with garrison, buildings and research.
func (h *Handler) GetVillage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	villageID, ok := parseUintParam(c, "villageID")
	if !ok {
		return
	}
	detail, err := h.svc.GetVillageDetail(villageID, userID)
	if err != nil {
		respondServiceError(c, err, constants.ErrFailedFetchVillage)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type dispatchRequest struct {
	TargetVillageID uint           `json:"target_village_id"`
	Kind            string         `json:"kind"`
	Units           map[string]int `json:"units"`
	TargetBuilding  string         `json:"target_building"`
}

// Dispatch sends units from the path village toward a target.
func (h *Handler) Dispatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	villageID, ok := parseUintParam(c, "villageID")
	if !ok {
		return
	}
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	result, err := h.svc.Dispatch(userID, service.DispatchRequest{
		SourceVillageID: villageID,
		TargetVillageID: req.TargetVillageID,
		Kind:            game.OperationKind(req.Kind),
		Units:           req.Units,
		TargetBuilding:  req.TargetBuilding,
	})
	if err != nil {
		respondServiceError(c, err, constants.ErrFailedDispatch)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"operation":      result.Operation,
		"travel_seconds": result.TravelSeconds,
	})
}
