package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/middleware"
	"github.com/semanticallynull/movr-backend/ride"
)

type startRideRequest struct {
	RiderID   uuid.UUID `json:"riderId" binding:"required"`
	VehicleID uuid.UUID `json:"vehicleId" binding:"required"`
}

func (a *API) startRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req startRideRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	r, err := a.rr.Start(c.Request.Context(), c.Param("city"), req.RiderID, req.VehicleID)
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRideResponse(r))
}

type endRideRequest struct {
	EndAddress string `json:"endAddress" binding:"required"`
}

func (a *API) endRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid ride id"})
		return
	}

	var req endRideRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	r, err := a.rr.End(c.Request.Context(), c.Param("city"), id, req.EndAddress)
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(200, toRideResponse(r))
}

func (a *API) activeRidesHandler(c *gin.Context) {
	rides, err := a.rr.Active(c.Request.Context(), c.Param("city"), limitParam(c))
	if err != nil {
		a.renderError(c, err)
		return
	}

	resp := make([]rideResponse, 0, len(rides))
	for _, r := range rides {
		resp = append(resp, toRideResponse(r))
	}
	c.JSON(200, resp)
}

type rideResponse struct {
	City         string     `json:"city"`
	ID           uuid.UUID  `json:"id"`
	VehicleID    uuid.UUID  `json:"vehicleId"`
	RiderID      uuid.UUID  `json:"riderId"`
	StartAddress string     `json:"startAddress,omitempty"`
	EndAddress   string     `json:"endAddress,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
}

func toRideResponse(r ride.Ride) rideResponse {
	resp := rideResponse{
		City:         r.City,
		ID:           r.ID,
		VehicleID:    r.VehicleID,
		RiderID:      r.RiderID,
		StartAddress: r.StartAddress.String,
		EndAddress:   r.EndAddress.String,
		StartTime:    r.StartTime,
	}
	if r.EndTime.Valid {
		resp.EndTime = &r.EndTime.Time
	}
	return resp
}
