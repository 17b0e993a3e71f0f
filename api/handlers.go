package api

import (
	"errors"
	"net/http"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/services"
	"amtrak-price-tracker/storage"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listTrips(c *gin.Context) {
	trips, err := s.trips.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trips: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (s *Server) createTrip(c *gin.Context) {
	var input models.Trip
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	trip, err := services.NewTrip(input, s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.trips.Save(c.Request.Context(), trip); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save trip: " + err.Error()})
		return
	}
	s.logger.Info("Tracking %s on %s (paid $%.2f)", trip.Route(), trip.TravelDate, trip.PricePaid)
	c.JSON(http.StatusCreated, trip)
}

func (s *Server) deleteTrip(c *gin.Context) {
	id := c.Param("id")
	err := s.trips.Delete(c.Request.Context(), id)
	if errors.Is(err, storage.ErrTripNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete trip: " + err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) summary(c *gin.Context) {
	trips, err := s.trips.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trips: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.insights.Summarize(trips, s.now()))
}

func (s *Server) getSettings(c *gin.Context) {
	st, err := s.settings.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) patchSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	if patch.CheckInterval != nil && *patch.CheckInterval <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "checkInterval must be a positive number of hours"})
		return
	}
	// the sweep owns this field
	patch.LastChecked = nil

	st, err := s.settings.Save(c.Request.Context(), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings: " + err.Error()})
		return
	}
	s.scheduler.SetInterval(st.CheckInterval)
	c.JSON(http.StatusOK, st)
}

func (s *Server) check(c *gin.Context) {
	s.scheduler.Trigger()
	c.JSON(http.StatusAccepted, gin.H{"status": "sweep started"})
}
