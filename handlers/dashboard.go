package handlers

import (
	"net/http"

	"github.com/Abhisg5/trafficDetector/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	analytics *services.AnalyticsEngine
}

func NewDashboardHandler(analytics *services.AnalyticsEngine) *DashboardHandler {
	return &DashboardHandler{analytics: analytics}
}

// TrafficTrend returns the daily mean congestion over the trailing N days.
func (h *DashboardHandler) TrafficTrend(c *gin.Context) {
	days := queryInt(c, "days", 30)

	series, err := h.analytics.TrafficTrend(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "trend": series})
}

// OpportunityTrend returns the daily mean investment score of saved
// opportunities over the trailing N days.
func (h *DashboardHandler) OpportunityTrend(c *gin.Context) {
	days := queryInt(c, "days", 30)

	series, err := h.analytics.OpportunityTrend(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "trend": series})
}
