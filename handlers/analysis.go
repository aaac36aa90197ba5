package handlers

import (
	"errors"
	"net/http"

	"github.com/Abhisg5/trafficDetector/services"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analytics     *services.AnalyticsEngine
	finder        *services.OpportunityFinder
	opportunities services.OpportunityStore
}

func NewAnalysisHandler(analytics *services.AnalyticsEngine, finder *services.OpportunityFinder, opportunities services.OpportunityStore) *AnalysisHandler {
	return &AnalysisHandler{
		analytics:     analytics,
		finder:        finder,
		opportunities: opportunities,
	}
}

// population resolves the opportunity population an analysis runs over:
// saved records when source=saved, otherwise a fresh evaluation of the region.
func (h *AnalysisHandler) population(c *gin.Context) ([]services.InvestmentMetrics, error) {
	if c.DefaultQuery("source", "region") == "saved" {
		records, err := h.opportunities.List(c.Request.Context(), true)
		if err != nil {
			return nil, err
		}
		return services.MetricsFromOpportunities(records), nil
	}

	region := c.DefaultQuery("region", "atlanta")
	return h.finder.FindOpportunities(c.Request.Context(), region, 0, 0), nil
}

// Correlation reports factor-vs-ROI Pearson correlations over a population.
func (h *AnalysisHandler) Correlation(c *gin.Context) {
	opportunities, err := h.population(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	report, err := services.Correlate(opportunities)
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "correlation failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Segmentation buckets a population by score, roi or risk.
func (h *AnalysisHandler) Segmentation(c *gin.Context) {
	criterion := c.DefaultQuery("criterion", services.SegmentByScore)

	opportunities, err := h.population(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	segmentation, err := services.SegmentOpportunities(opportunities, criterion)
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "segmentation failed"})
		return
	}

	c.JSON(http.StatusOK, segmentation)
}

type compareRequest struct {
	Locations []string `json:"locations" binding:"required"`
}

// Compare ranks the requested locations against each other.
func (h *AnalysisHandler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "locations array is required"})
		return
	}

	comparison, err := h.analytics.CompareLocations(c.Request.Context(), req.Locations)
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
		return
	}

	c.JSON(http.StatusOK, comparison)
}
