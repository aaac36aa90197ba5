package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Abhisg5/trafficDetector/services"

	"github.com/gin-gonic/gin"
)

type InvestmentHandler struct {
	finder        *services.OpportunityFinder
	opportunities services.OpportunityStore
	cache         *services.CacheService
}

func NewInvestmentHandler(finder *services.OpportunityFinder, opportunities services.OpportunityStore, cache *services.CacheService) *InvestmentHandler {
	return &InvestmentHandler{
		finder:        finder,
		opportunities: opportunities,
		cache:         cache,
	}
}

// Opportunities scores a region's candidate locations and returns the ranked
// results above min_score.
func (h *InvestmentHandler) Opportunities(c *gin.Context) {
	region := c.DefaultQuery("region", "atlanta")
	minScore := queryFloat(c, "min_score", 0.6)
	maxResults := queryInt(c, "max_results", 10)

	cacheKey := fmt.Sprintf("investment:opportunities:%s:%.2f:%d", region, minScore, maxResults)
	var cached gin.H
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	opportunities := h.finder.FindOpportunities(c.Request.Context(), region, minScore, maxResults)

	resp := gin.H{
		"region":        region,
		"min_score":     minScore,
		"count":         len(opportunities),
		"opportunities": opportunities,
	}
	go h.cache.Set(context.Background(), cacheKey, resp, 5*time.Minute)

	c.JSON(http.StatusOK, resp)
}

// Analysis evaluates a single location in full.
func (h *InvestmentHandler) Analysis(c *gin.Context) {
	location := c.Param("location")
	metrics := h.finder.Evaluate(c.Request.Context(), location)

	c.JSON(http.StatusOK, gin.H{
		"metrics":                    metrics,
		"risk_level":                 services.RiskLevel(metrics.RiskScore),
		"recommended_property_types": services.RecommendedPropertyTypes(metrics),
		"key_factors":                services.KeyFactors(metrics),
	})
}

type saveOpportunityRequest struct {
	Location     string `json:"location" binding:"required"`
	PropertyType string `json:"property_type"`
}

// Save evaluates the location and persists the result as an opportunity.
func (h *InvestmentHandler) Save(c *gin.Context) {
	var req saveOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}

	metrics := h.finder.Evaluate(c.Request.Context(), req.Location)
	id, err := h.finder.Save(c.Request.Context(), metrics, req.PropertyType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save opportunity"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "metrics": metrics})
}

// Saved lists persisted opportunities, active-only by default, ranked by
// investment score.
func (h *InvestmentHandler) Saved(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") != "false"

	records, err := h.opportunities.List(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(records), "opportunities": records})
}

type updateOpportunityRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// Update toggles an opportunity's active flag.
func (h *InvestmentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
		return
	}

	var req updateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}

	if err := h.opportunities.SetActive(c.Request.Context(), uint(id), *req.IsActive); err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "opportunity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": *req.IsActive})
}

// MarketAnalysis summarizes every candidate location in a region.
func (h *InvestmentHandler) MarketAnalysis(c *gin.Context) {
	region := c.DefaultQuery("region", "atlanta")

	analysis, err := h.finder.AnalyzeMarket(c.Request.Context(), region)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no candidate locations for region"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "market analysis failed"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Recommendations returns presentation-ready picks for a region.
func (h *InvestmentHandler) Recommendations(c *gin.Context) {
	region := c.DefaultQuery("region", "atlanta")
	c.JSON(http.StatusOK, gin.H{
		"region":          region,
		"recommendations": h.finder.Recommendations(c.Request.Context(), region),
	})
}
