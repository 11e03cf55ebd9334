package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/internal/middleware"
	"github.com/semanticallynull/movr-backend/vehicle"
)

func (a *API) vehiclesHandler(c *gin.Context) {
	vehicles, err := a.vr.List(c.Request.Context(), c.Param("city"), limitParam(c))
	if err != nil {
		a.renderError(c, err)
		return
	}

	resp := make([]vehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		resp = append(resp, toVehicleResponse(v))
	}
	c.JSON(200, resp)
}

type addVehicleRequest struct {
	OwnerID  uuid.UUID   `json:"ownerId" binding:"required"`
	Type     string      `json:"type"`
	Location string      `json:"location"`
	Ext      db.Document `json:"ext"`
}

func (a *API) addVehicleHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req addVehicleRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	v, err := a.vr.Add(c.Request.Context(), c.Param("city"), req.OwnerID, req.Type, req.Location, req.Ext)
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toVehicleResponse(v))
}

func (a *API) deleteVehicleHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid vehicle id"})
		return
	}

	if err := a.vr.Delete(c.Request.Context(), c.Param("city"), id); err != nil {
		a.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type recordLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (a *API) recordLocationHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid vehicle id"})
		return
	}

	var req recordLocationRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := a.hr.Record(c.Request.Context(), c.Param("city"), id, req.Lat, req.Lng); err != nil {
		a.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) locationsHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid vehicle id"})
		return
	}

	entries, err := a.hr.List(c.Request.Context(), c.Param("city"), id, limitParam(c))
	if err != nil {
		a.renderError(c, err)
		return
	}

	resp := make([]locationResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, locationResponse{
			TS:  e.TS,
			Lat: e.Location.P.X,
			Lng: e.Location.P.Y,
		})
	}
	c.JSON(200, resp)
}

type vehicleResponse struct {
	City            string      `json:"city"`
	ID              uuid.UUID   `json:"id"`
	Type            string      `json:"type,omitempty"`
	OwnerID         uuid.UUID   `json:"ownerId"`
	Status          string      `json:"status"`
	CurrentLocation string      `json:"currentLocation,omitempty"`
	Ext             db.Document `json:"ext,omitempty"`
}

func toVehicleResponse(v vehicle.Vehicle) vehicleResponse {
	return vehicleResponse{
		City:            v.City,
		ID:              v.ID,
		Type:            v.Type.String,
		OwnerID:         v.OwnerID,
		Status:          v.Status.String(),
		CurrentLocation: v.CurrentLocation.String,
		Ext:             v.Ext,
	}
}

type locationResponse struct {
	TS  time.Time `json:"ts"`
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
}
