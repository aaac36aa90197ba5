package services

import (
	"context"
	"sort"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

// Confidence reported for heuristic evaluations. A trained model would
// compute this from data quality.
const defaultConfidence = 0.8

// OpportunityFinder drives the score engine and ROI model across a region's
// candidate locations and promotes selected results to persisted
// opportunities.
type OpportunityFinder struct {
	scores *ScoreEngine
	store  OpportunityStore
	now    func() time.Time
}

func NewOpportunityFinder(scores *ScoreEngine, store OpportunityStore) *OpportunityFinder {
	return &OpportunityFinder{
		scores: scores,
		store:  store,
		now:    time.Now,
	}
}

// Evaluate computes the full finalized metrics for one location.
func (f *OpportunityFinder) Evaluate(ctx context.Context, location string) InvestmentMetrics {
	traffic := f.scores.TrafficScore(ctx, location, DefaultTrafficWindowDays)
	demographic := f.scores.DemographicScore(location)
	economic := f.scores.EconomicScore(location)
	risk := f.scores.RiskScore(location)

	lat, lng := ResolveCoordinates(location)

	window := f.scores.SamplesInWindow(ctx, location, DefaultTrafficWindowDays)
	factors := map[string]float64{
		"traffic_consistency": ConsistencyScore(window),
		"peak_hours":          float64(len(PeakHours(window))),
		"data_points":         float64(len(window)),
	}

	return BuildMetrics(location, lat, lng, traffic, demographic, economic, risk, defaultConfidence, factors)
}

// FindOpportunities scores every candidate location in the region, keeps
// those at or above minScore, and returns them ranked by overall score
// descending. The sort is stable, so ties keep candidate-list order. Given
// the same sample history, output is fully deterministic.
func (f *OpportunityFinder) FindOpportunities(ctx context.Context, region string, minScore float64, maxResults int) []InvestmentMetrics {
	var opportunities []InvestmentMetrics
	for _, location := range CandidateLocations(region) {
		metrics := f.Evaluate(ctx, location)
		if metrics.OverallScore < minScore {
			continue
		}
		opportunities = append(opportunities, metrics)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].OverallScore > opportunities[j].OverallScore
	})

	if maxResults > 0 && len(opportunities) > maxResults {
		opportunities = opportunities[:maxResults]
	}
	return opportunities
}

// Save promotes metrics to a persisted InvestmentOpportunity. The price range
// is fixed to "medium"; no pricing model exists yet.
func (f *OpportunityFinder) Save(ctx context.Context, metrics InvestmentMetrics, propertyType string) (uint, error) {
	if propertyType == "" {
		propertyType = "mixed"
	}

	now := f.now().UTC()
	opportunity := &models.InvestmentOpportunity{
		Location:         metrics.Location,
		Latitude:         metrics.Latitude,
		Longitude:        metrics.Longitude,
		InvestmentScore:  metrics.OverallScore,
		TrafficScore:     metrics.TrafficScore,
		DemographicScore: metrics.DemographicScore,
		EconomicScore:    metrics.EconomicScore,
		RiskScore:        metrics.RiskScore,
		PredictedROI:     metrics.PredictedROI,
		PropertyType:     propertyType,
		PriceRange:       "medium",
		CreatedAt:        now,
		UpdatedAt:        now,
		IsActive:         true,
	}

	return f.store.Insert(ctx, opportunity)
}

// MarketAnalysis summarizes every candidate location in a region at once.
type MarketAnalysis struct {
	Region            string              `json:"region"`
	LocationsAnalyzed int                 `json:"locations_analyzed"`
	AverageScore      float64             `json:"average_score"`
	AverageROI        float64             `json:"average_roi"`
	ScoreDistribution map[string]int      `json:"score_distribution"`
	ROIDistribution   map[string]int      `json:"roi_distribution"`
	PropertyTypes     map[string]int      `json:"property_type_recommendations"`
	TopOpportunities  []InvestmentMetrics `json:"top_opportunities"`
}

// AnalyzeMarket scores the whole region with no threshold and buckets the
// results. Distribution labels reuse the segmentation tiers.
func (f *OpportunityFinder) AnalyzeMarket(ctx context.Context, region string) (*MarketAnalysis, error) {
	opportunities := f.FindOpportunities(ctx, region, 0, 0)
	if len(opportunities) == 0 {
		return nil, ErrNoData
	}

	analysis := &MarketAnalysis{
		Region:            region,
		LocationsAnalyzed: len(opportunities),
		ScoreDistribution: map[string]int{},
		ROIDistribution:   map[string]int{},
		PropertyTypes:     map[string]int{},
	}

	var scoreSum, roiSum float64
	for _, opp := range opportunities {
		scoreSum += opp.OverallScore
		roiSum += opp.PredictedROI
		analysis.ScoreDistribution[scoreTier(opp.OverallScore)]++
		analysis.ROIDistribution[roiTier(opp.PredictedROI)]++
		for _, pt := range RecommendedPropertyTypes(opp) {
			analysis.PropertyTypes[pt]++
		}
	}
	analysis.AverageScore = scoreSum / float64(len(opportunities))
	analysis.AverageROI = roiSum / float64(len(opportunities))

	top := opportunities
	if len(top) > 5 {
		top = top[:5]
	}
	analysis.TopOpportunities = top
	return analysis, nil
}

// Recommendation is a presentation-ready view of one scored location.
type Recommendation struct {
	Location           string   `json:"location"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	OverallScore       float64  `json:"overall_score"`
	PredictedROI       float64  `json:"predicted_roi"`
	RiskLevel          string   `json:"risk_level"`
	PropertyTypes      []string `json:"recommended_property_types"`
	KeyFactors         []string `json:"key_factors"`
	InvestmentTimeline string   `json:"investment_timeline"`
	Confidence         float64  `json:"confidence"`
}

// Recommendations wraps FindOpportunities with derived labels for each hit.
func (f *OpportunityFinder) Recommendations(ctx context.Context, region string) []Recommendation {
	opportunities := f.FindOpportunities(ctx, region, 0.6, 10)

	recommendations := make([]Recommendation, 0, len(opportunities))
	for _, opp := range opportunities {
		recommendations = append(recommendations, Recommendation{
			Location:           opp.Location,
			Latitude:           opp.Latitude,
			Longitude:          opp.Longitude,
			OverallScore:       opp.OverallScore,
			PredictedROI:       opp.PredictedROI,
			RiskLevel:          RiskLevel(opp.RiskScore),
			PropertyTypes:      RecommendedPropertyTypes(opp),
			KeyFactors:         KeyFactors(opp),
			InvestmentTimeline: "6-12 months",
			Confidence:         opp.Confidence,
		})
	}
	return recommendations
}
