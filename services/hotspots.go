package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

// Hotspot is a derived view of one location's congestion over a window. It is
// recomputed from raw samples on every query and never persisted.
type Hotspot struct {
	Location          string         `json:"location"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	HotspotScore      float64        `json:"hotspot_score"`
	AverageCongestion float64        `json:"average_congestion"`
	DataPoints        int            `json:"data_points"`
	DataConsistency   float64        `json:"data_consistency"`
	DominantLevel     string         `json:"dominant_traffic_level"`
	LevelCounts       map[string]int `json:"traffic_level_counts"`
	Sources           []string       `json:"sources"`
}

// HotspotDetector clusters stored samples by location string and ranks the
// clusters by a consistency-weighted congestion score.
type HotspotDetector struct {
	samples SampleStore
	now     func() time.Time
}

func NewHotspotDetector(samples SampleStore) *HotspotDetector {
	return &HotspotDetector{samples: samples, now: time.Now}
}

// FindHotspots aggregates the trailing windowDays of samples whose location
// matches region, scores each location cluster, drops clusters below
// minCongestion and returns up to limit results ranked by hotspot score
// descending. A region with no matching samples yields ErrNoData.
func (d *HotspotDetector) FindHotspots(ctx context.Context, region string, minCongestion float64, windowDays, limit int) ([]Hotspot, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	since := d.now().AddDate(0, 0, -windowDays)
	all, err := d.samples.AllSamplesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}

	groups := map[string][]models.TrafficSample{}
	var order []string
	for _, sample := range all {
		if !regionMatches(sample.Location, region) {
			continue
		}
		if _, seen := groups[sample.Location]; !seen {
			order = append(order, sample.Location)
		}
		groups[sample.Location] = append(groups[sample.Location], sample)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no samples for region %q: %w", region, ErrNoData)
	}

	hotspots := make([]Hotspot, 0, len(groups))
	for _, location := range order {
		hotspot := buildHotspot(location, groups[location], windowDays)
		if hotspot.AverageCongestion < minCongestion {
			continue
		}
		hotspots = append(hotspots, hotspot)
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].HotspotScore > hotspots[j].HotspotScore
	})
	if limit > 0 && len(hotspots) > limit {
		hotspots = hotspots[:limit]
	}
	return hotspots, nil
}

// regionMatches reports whether the sample location belongs to the region:
// either the whole region is a substring of the location, or any
// whitespace-delimited word of the region is.
func regionMatches(location, region string) bool {
	loc := strings.ToLower(location)
	reg := strings.ToLower(strings.TrimSpace(region))
	if reg == "" || strings.Contains(loc, reg) {
		return true
	}
	for _, word := range strings.Fields(reg) {
		if strings.Contains(loc, word) {
			return true
		}
	}
	return false
}

func buildHotspot(location string, samples []models.TrafficSample, windowDays int) Hotspot {
	var congestionSum float64
	levelCounts := map[string]int{}
	sourceSet := map[string]struct{}{}
	for _, s := range samples {
		congestionSum += s.CongestionScore
		levelCounts[s.TrafficLevel]++
		sourceSet[s.Source] = struct{}{}
	}

	avgCongestion := congestionSum / float64(len(samples))
	consistency := math.Min(float64(len(samples))/float64(windowDays), 1.0)

	sources := make([]string, 0, len(sourceSet))
	for source := range sourceSet {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	lat, lng := ResolveCoordinates(location)
	return Hotspot{
		Location:          location,
		Latitude:          lat,
		Longitude:         lng,
		HotspotScore:      math.Min(avgCongestion*consistency, 1.0),
		AverageCongestion: avgCongestion,
		DataPoints:        len(samples),
		DataConsistency:   consistency,
		DominantLevel:     dominantLevel(levelCounts),
		LevelCounts:       levelCounts,
		Sources:           sources,
	}
}

func dominantLevel(counts map[string]int) string {
	best := ""
	bestCount := -1
	// Fixed iteration order keeps ties deterministic.
	for _, level := range []string{models.TrafficLevelSevere, models.TrafficLevelHigh, models.TrafficLevelMedium, models.TrafficLevelLow} {
		if counts[level] > bestCount {
			best = level
			bestCount = counts[level]
		}
	}
	return best
}
