package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/movr-backend/history"
	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/internal/middleware"
	"github.com/semanticallynull/movr-backend/internal/o11y"
	"github.com/semanticallynull/movr-backend/promo"
	"github.com/semanticallynull/movr-backend/ride"
	"github.com/semanticallynull/movr-backend/user"
	"github.com/semanticallynull/movr-backend/vehicle"
)

type API struct {
	r  *gin.Engine
	ur *user.Repository
	vr *vehicle.Repository
	rr *ride.Repository
	hr *history.Repository
	pr *promo.Repository
}

func New(ur *user.Repository, vr *vehicle.Repository, rr *ride.Repository, hr *history.Repository, pr *promo.Repository, obs *o11y.Observability, metricsUsername, metricsPassword string) *API {
	a := &API{
		r:  gin.New(),
		ur: ur,
		vr: vr,
		rr: rr,
		hr: hr,
		pr: pr,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	a.r.POST("/users", a.createUserHandler)
	a.r.GET("/cities/:city/users", a.usersHandler)
	a.r.GET("/cities/:city/users/:id", a.userHandler)

	a.r.GET("/cities/:city/vehicles", a.vehiclesHandler)
	a.r.POST("/cities/:city/vehicles", a.addVehicleHandler)
	a.r.DELETE("/cities/:city/vehicles/:id", a.deleteVehicleHandler)
	a.r.POST("/cities/:city/vehicles/:id/locations", a.recordLocationHandler)
	a.r.GET("/cities/:city/vehicles/:id/locations", a.locationsHandler)

	a.r.POST("/cities/:city/rides", a.startRideHandler)
	a.r.POST("/cities/:city/rides/:id/end", a.endRideHandler)
	a.r.GET("/cities/:city/rides/active", a.activeRidesHandler)

	a.r.GET("/promos", a.promosHandler)
	a.r.POST("/promos", a.createPromoHandler)
	a.r.POST("/promos/:code/apply", a.applyPromoHandler)

	if metricsUsername != "" {
		metrics := a.r.Group("/metrics", gin.BasicAuth(gin.Accounts{metricsUsername: metricsPassword}))
		metrics.GET("", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))
	}

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// limitParam reads the optional ?limit query. 0 means no cap.
func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// renderError maps repository errors onto status codes: missing rows to 404,
// data conflicts the caller can fix to 409, an exhausted retry ceiling to
// 503 (the store is overloaded, retry the whole request later).
func (a *API) renderError(c *gin.Context, err error) {
	logger := middleware.GetLogger(c)

	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, ride.ErrNotFound),
		errors.Is(err, ride.ErrVehicleNotFound),
		errors.Is(err, promo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ride.ErrVehicleNotAvailable),
		errors.Is(err, ride.ErrAlreadyEnded),
		errors.Is(err, ride.ErrRiderNotFound),
		errors.Is(err, vehicle.ErrOwnerNotFound),
		errors.Is(err, promo.ErrAlreadyApplied),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUserNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrTxMaxRetries):
		logger.Error("transaction retry ceiling exceeded", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store contention, retry later"})
	default:
		logger.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
