package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/middleware"
	"github.com/semanticallynull/movr-backend/user"
)

type createUserRequest struct {
	City       string `json:"city" binding:"required"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	CreditCard string `json:"creditCard"`
}

func (a *API) createUserHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	u, err := a.ur.Add(c.Request.Context(), req.City, req.Name, req.Address, req.CreditCard)
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(u))
}

func (a *API) usersHandler(c *gin.Context) {
	users, err := a.ur.List(c.Request.Context(), c.Param("city"), limitParam(c))
	if err != nil {
		a.renderError(c, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	c.JSON(200, resp)
}

func (a *API) userHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid user id"})
		return
	}

	u, err := a.ur.Get(c.Request.Context(), c.Param("city"), id)
	if err != nil {
		a.renderError(c, err)
		return
	}

	c.JSON(200, toUserResponse(u))
}

type userResponse struct {
	City    string    `json:"city"`
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"`
	Address string    `json:"address,omitempty"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		City:    u.City,
		ID:      u.ID,
		Name:    u.Name.String,
		Address: u.Address.String,
	}
}
