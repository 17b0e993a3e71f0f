package api

import (
	"net/http"
	"time"

	"amtrak-price-tracker/services"
	"amtrak-price-tracker/storage"
	"amtrak-price-tracker/utils"

	"github.com/gin-gonic/gin"
)

// Scheduler is the part of the sweep scheduler the API drives
type Scheduler interface {
	Trigger()
	SetInterval(hours int) bool
}

// Server holds the handlers' dependencies
type Server struct {
	trips     storage.TripStore
	settings  storage.SettingsStore
	scheduler Scheduler
	insights  *services.InsightService
	logger    *utils.Logger
	now       func() time.Time
}

// NewServer creates the API server
func NewServer(trips storage.TripStore, settings storage.SettingsStore, scheduler Scheduler, logger *utils.Logger) *Server {
	return &Server{
		trips:     trips,
		settings:  settings,
		scheduler: scheduler,
		insights:  services.NewInsightService(logger),
		logger:    logger,
		now:       time.Now,
	}
}

// NewRouter builds the gin engine for the control API
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		s.logger.Warn("failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/healthz", s.health)

	trips := r.Group("/trips")
	trips.GET("", s.listTrips)
	trips.POST("", s.createTrip)
	trips.DELETE("/:id", s.deleteTrip)

	r.GET("/summary", s.summary)
	r.GET("/settings", s.getSettings)
	r.PATCH("/settings", s.patchSettings)
	r.POST("/check", s.check)

	return r
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
