package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/internal/middleware"
	"github.com/semanticallynull/movr-backend/promo"
)

func (a *API) promosHandler(c *gin.Context) {
	promos, err := a.pr.List(c.Request.Context(), limitParam(c))
	if err != nil {
		a.renderError(c, err)
		return
	}

	resp := make([]promoResponse, 0, len(promos))
	for _, p := range promos {
		resp = append(resp, toPromoResponse(p))
	}
	c.JSON(200, resp)
}

type createPromoRequest struct {
	Code        string      `json:"code" binding:"required"`
	Description string      `json:"description"`
	Rules       db.Document `json:"rules"`
	ExpiresAt   *time.Time  `json:"expiresAt"`
}

func (a *API) createPromoHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req createPromoRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	p, err := a.pr.Create(c.Request.Context(), req.Code, req.Description, req.Rules, req.ExpiresAt)
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPromoResponse(p))
}

type applyPromoRequest struct {
	City   string    `json:"city" binding:"required"`
	UserID uuid.UUID `json:"userId" binding:"required"`
}

func (a *API) applyPromoHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req applyPromoRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	applied, err := a.pr.Apply(c.Request.Context(), req.City, req.UserID, c.Param("code"))
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appliedPromoResponse{
		City:   applied.City,
		UserID: applied.UserID,
		Code:   applied.Code,
		TS:     applied.TS,
	})
}

type promoResponse struct {
	Code        string      `json:"code"`
	Description string      `json:"description,omitempty"`
	Rules       db.Document `json:"rules,omitempty"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
}

func toPromoResponse(p promo.PromoCode) promoResponse {
	resp := promoResponse{
		Code:        p.Code,
		Description: p.Description.String,
		Rules:       p.Rules,
	}
	if p.ExpirationTime.Valid {
		resp.ExpiresAt = &p.ExpirationTime.Time
	}
	return resp
}

type appliedPromoResponse struct {
	City   string    `json:"city"`
	UserID uuid.UUID `json:"userId"`
	Code   string    `json:"code"`
	TS     time.Time `json:"ts"`
}
