package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Abhisg5/trafficDetector/services"

	"github.com/gin-gonic/gin"
)

type TrafficHandler struct {
	collector *services.TrafficCollector
	samples   services.SampleStore
	hotspots  *services.HotspotDetector
	cache     *services.CacheService
}

func NewTrafficHandler(collector *services.TrafficCollector, samples services.SampleStore, hotspots *services.HotspotDetector, cache *services.CacheService) *TrafficHandler {
	return &TrafficHandler{
		collector: collector,
		samples:   samples,
		hotspots:  hotspots,
		cache:     cache,
	}
}

// Collect fans the location out to every provider, stores what succeeded and
// publishes each stored sample on the live channel.
func (h *TrafficHandler) Collect(c *gin.Context) {
	location := c.Param("location")

	samples := h.collector.Collect(c.Request.Context(), location)
	if len(samples) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no provider returned data for location"})
		return
	}

	stored := 0
	for i := range samples {
		if err := h.samples.Append(c.Request.Context(), &samples[i]); err != nil {
			log.Printf("store sample for %s failed: %v", location, err)
			continue
		}
		stored++
		go h.cache.Publish(context.Background(), services.LiveSampleChannel, samples[i])
	}
	if stored > 0 {
		// The cached current reading is stale now.
		go h.cache.Delete(context.Background(), fmt.Sprintf("traffic:current:%s", location))
	}

	c.JSON(http.StatusOK, gin.H{
		"location":  location,
		"collected": len(samples),
		"stored":    stored,
		"samples":   samples,
	})
}

// Current returns the most recent stored sample for the location.
func (h *TrafficHandler) Current(c *gin.Context) {
	location := c.Param("location")

	cacheKey := fmt.Sprintf("traffic:current:%s", location)
	var cached gin.H
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	sample, err := h.samples.Latest(c.Request.Context(), location)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no samples for location"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"location": location, "sample": sample}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

// Historical returns the location's samples over the trailing N days, newest
// first, as a cursor page.
func (h *TrafficHandler) Historical(c *gin.Context) {
	location := c.Param("location")
	days := queryInt(c, "days", 7)
	p := ParsePagination(c)

	since := time.Now().AddDate(0, 0, -days)
	samples, err := h.samples.SamplesSince(c.Request.Context(), location, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	// Newest first for cursoring.
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	if p.Before != nil {
		cut := len(samples)
		for i, s := range samples {
			if s.Timestamp.Before(*p.Before) {
				cut = i
				break
			}
		}
		samples = samples[cut:]
	}

	hasMore := len(samples) > p.Limit
	if hasMore {
		samples = samples[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(samples) > 0 {
		nextCursor = samples[len(samples)-1].Timestamp.Format(time.RFC3339Nano)
	}

	c.JSON(http.StatusOK, CursorResponse{Data: samples, NextCursor: nextCursor, HasMore: hasMore})
}

// Hotspots is the short-window variant: default 7 days, up to 10 results.
func (h *TrafficHandler) Hotspots(c *gin.Context) {
	h.serveHotspots(c, queryInt(c, "days", 7), 10)
}

// HotspotsLongTerm is the 90-day variant, up to 20 results.
func (h *TrafficHandler) HotspotsLongTerm(c *gin.Context) {
	h.serveHotspots(c, 90, 20)
}

func (h *TrafficHandler) serveHotspots(c *gin.Context, windowDays, limit int) {
	region := c.DefaultQuery("region", "atlanta")
	minCongestion := queryFloat(c, "min_congestion", 0.0)

	hotspots, err := h.hotspots.FindHotspots(c.Request.Context(), region, minCongestion, windowDays, limit)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no samples for region"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hotspot detection failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"region":      region,
		"window_days": windowDays,
		"count":       len(hotspots),
		"hotspots":    hotspots,
	})
}

// Patterns reports hourly/weekday structure of the location's recent history.
func (h *TrafficHandler) Patterns(c *gin.Context) {
	location := c.Param("location")
	days := queryInt(c, "days", 30)

	since := time.Now().AddDate(0, 0, -days)
	samples, err := h.samples.SamplesSince(c.Request.Context(), location, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	report, err := services.AnalyzeTrafficPatterns(location, samples)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no samples for location"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pattern analysis failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}
