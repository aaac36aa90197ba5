package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Abhisg5/trafficDetector/models"
)

// Minimum population sizes for the statistical operations.
const (
	minCorrelationSamples = 5
	minComparisonEntries  = 2
)

// AnalyticsEngine runs read-only statistics over already-scored opportunity
// collections. It never touches raw samples except for trend series.
type AnalyticsEngine struct {
	finder        *OpportunityFinder
	samples       SampleStore
	opportunities OpportunityStore
	now           func() time.Time
}

func NewAnalyticsEngine(finder *OpportunityFinder, samples SampleStore, opportunities OpportunityStore) *AnalyticsEngine {
	return &AnalyticsEngine{
		finder:        finder,
		samples:       samples,
		opportunities: opportunities,
		now:           time.Now,
	}
}

// CorrelationEntry is one factor's Pearson correlation against predicted ROI.
type CorrelationEntry struct {
	Factor      string  `json:"factor"`
	Coefficient float64 `json:"coefficient"`
}

// CorrelationReport holds factor-vs-ROI correlations for a population.
type CorrelationReport struct {
	SampleSize   int                `json:"sample_size"`
	Coefficients map[string]float64 `json:"coefficients"`
	Strong       []CorrelationEntry `json:"strong_correlations"`
}

// Correlate computes the Pearson correlation of each score dimension against
// predicted ROI across the population. Fewer than five opportunities is a
// client error. Zero-variance inputs produce NaN from the estimator; those
// coefficients are reported as 0.0.
func Correlate(opportunities []InvestmentMetrics) (CorrelationReport, error) {
	if len(opportunities) < minCorrelationSamples {
		return CorrelationReport{}, fmt.Errorf("correlation needs at least %d opportunities, got %d: %w",
			minCorrelationSamples, len(opportunities), ErrInvalidArgument)
	}

	n := len(opportunities)
	roi := make([]float64, n)
	factors := map[string][]float64{
		"traffic_score":     make([]float64, n),
		"demographic_score": make([]float64, n),
		"economic_score":    make([]float64, n),
		"risk_score":        make([]float64, n),
		"overall_score":     make([]float64, n),
	}
	for i, opp := range opportunities {
		roi[i] = opp.PredictedROI
		factors["traffic_score"][i] = opp.TrafficScore
		factors["demographic_score"][i] = opp.DemographicScore
		factors["economic_score"][i] = opp.EconomicScore
		factors["risk_score"][i] = opp.RiskScore
		factors["overall_score"][i] = opp.OverallScore
	}

	report := CorrelationReport{
		SampleSize:   n,
		Coefficients: map[string]float64{},
	}
	for name, values := range factors {
		report.Coefficients[name+"_vs_roi"] = safeCorrelation(values, roi)
	}
	report.Coefficients["traffic_vs_overall"] = safeCorrelation(factors["traffic_score"], factors["overall_score"])

	for name, coefficient := range report.Coefficients {
		if math.Abs(coefficient) > 0.5 {
			report.Strong = append(report.Strong, CorrelationEntry{Factor: name, Coefficient: coefficient})
		}
	}
	sort.SliceStable(report.Strong, func(i, j int) bool {
		return math.Abs(report.Strong[i].Coefficient) > math.Abs(report.Strong[j].Coefficient)
	})
	return report, nil
}

// safeCorrelation wraps the Pearson estimator: a NaN (zero-variance input)
// comes back as 0.0.
func safeCorrelation(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0.0
	}
	return r
}

// Segment is one non-empty bucket of a segmented population.
type Segment struct {
	Count         int                 `json:"count"`
	Percentage    float64             `json:"percentage"`
	AverageScores map[string]float64  `json:"average_scores"`
	AverageROI    float64             `json:"average_roi"`
	TopPerformers []InvestmentMetrics `json:"top_performers"`
}

// Segmentation buckets a population by one criterion.
type Segmentation struct {
	Criterion  string             `json:"criterion"`
	Population int                `json:"population"`
	Segments   map[string]Segment `json:"segments"`
}

// Segmented criteria.
const (
	SegmentByScore = "score"
	SegmentByROI   = "roi"
	SegmentByRisk  = "risk"
)

func scoreTier(overall float64) string {
	switch {
	case overall >= 0.8:
		return "premium"
	case overall >= 0.6:
		return "high_value"
	case overall >= 0.4:
		return "moderate"
	default:
		return "developing"
	}
}

func roiTier(roi float64) string {
	switch {
	case roi >= 0.1:
		return "high_roi"
	case roi >= 0.05:
		return "medium_roi"
	default:
		return "low_roi"
	}
}

func riskTier(risk float64) string {
	switch {
	case risk < 0.3:
		return "low_risk"
	case risk < 0.6:
		return "medium_risk"
	default:
		return "high_risk"
	}
}

// SegmentOpportunities partitions the population into named buckets by the
// given criterion. Every opportunity lands in exactly one bucket; empty
// buckets are omitted. An unrecognized criterion is ErrInvalidArgument.
func SegmentOpportunities(opportunities []InvestmentMetrics, criterion string) (Segmentation, error) {
	var tier func(InvestmentMetrics) string
	switch criterion {
	case SegmentByScore:
		tier = func(m InvestmentMetrics) string { return scoreTier(m.OverallScore) }
	case SegmentByROI:
		tier = func(m InvestmentMetrics) string { return roiTier(m.PredictedROI) }
	case SegmentByRisk:
		tier = func(m InvestmentMetrics) string { return riskTier(m.RiskScore) }
	default:
		return Segmentation{}, fmt.Errorf("unknown segmentation criterion %q: %w", criterion, ErrInvalidArgument)
	}

	buckets := map[string][]InvestmentMetrics{}
	for _, opp := range opportunities {
		name := tier(opp)
		buckets[name] = append(buckets[name], opp)
	}

	result := Segmentation{
		Criterion:  criterion,
		Population: len(opportunities),
		Segments:   map[string]Segment{},
	}
	for name, members := range buckets {
		result.Segments[name] = summarizeSegment(members, len(opportunities))
	}
	return result, nil
}

func summarizeSegment(members []InvestmentMetrics, population int) Segment {
	n := float64(len(members))
	sums := map[string]float64{}
	var roiSum float64
	for _, m := range members {
		sums["traffic_score"] += m.TrafficScore
		sums["demographic_score"] += m.DemographicScore
		sums["economic_score"] += m.EconomicScore
		sums["risk_score"] += m.RiskScore
		sums["overall_score"] += m.OverallScore
		roiSum += m.PredictedROI
	}
	averages := make(map[string]float64, len(sums))
	for key, sum := range sums {
		averages[key] = sum / n
	}

	top := make([]InvestmentMetrics, len(members))
	copy(top, members)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].OverallScore > top[j].OverallScore
	})
	if len(top) > 3 {
		top = top[:3]
	}

	return Segment{
		Count:         len(members),
		Percentage:    n / float64(population) * 100,
		AverageScores: averages,
		AverageROI:    roiSum / n,
		TopPerformers: top,
	}
}

// Comparison ranks a set of locations against each other.
type Comparison struct {
	Rankings      []InvestmentMetrics `json:"rankings"`
	Best          InvestmentMetrics   `json:"best_performer"`
	Worst         InvestmentMetrics   `json:"worst_performer"`
	AverageScore  float64             `json:"average_score"`
	AverageROI    float64             `json:"average_roi"`
	ScoreVariance float64             `json:"score_variance"`
	ROIVariance   float64             `json:"roi_variance"`
}

// CompareLocations evaluates each location and ranks them by overall score
// descending. Fewer than two locations is a client error. Variances are
// population variances over the compared set.
func (a *AnalyticsEngine) CompareLocations(ctx context.Context, locations []string) (Comparison, error) {
	if len(locations) < minComparisonEntries {
		return Comparison{}, fmt.Errorf("comparison needs at least %d locations, got %d: %w",
			minComparisonEntries, len(locations), ErrInvalidArgument)
	}

	rankings := make([]InvestmentMetrics, 0, len(locations))
	scores := make([]float64, 0, len(locations))
	rois := make([]float64, 0, len(locations))
	for _, location := range locations {
		metrics := a.finder.Evaluate(ctx, location)
		rankings = append(rankings, metrics)
		scores = append(scores, metrics.OverallScore)
		rois = append(rois, metrics.PredictedROI)
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].OverallScore > rankings[j].OverallScore
	})

	return Comparison{
		Rankings:      rankings,
		Best:          rankings[0],
		Worst:         rankings[len(rankings)-1],
		AverageScore:  stat.Mean(scores, nil),
		AverageROI:    stat.Mean(rois, nil),
		ScoreVariance: stat.PopVariance(scores, nil),
		ROIVariance:   stat.PopVariance(rois, nil),
	}, nil
}

// TrendPoint is one calendar day's aggregate.
type TrendPoint struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// TrafficTrend buckets the trailing days of samples by calendar date and
// reports the daily mean congestion, date-ordered ascending.
func (a *AnalyticsEngine) TrafficTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	since := a.now().AddDate(0, 0, -days)
	samples, err := a.samples.AllSamplesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, s := range samples {
		day := s.Timestamp.UTC().Format("2006-01-02")
		sums[day] += s.CongestionScore
		counts[day]++
	}
	return trendSeries(sums, counts), nil
}

// OpportunityTrend buckets opportunity creation timestamps by calendar date
// and reports the daily mean investment score, date-ordered ascending.
func (a *AnalyticsEngine) OpportunityTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	since := a.now().AddDate(0, 0, -days)
	opportunities, err := a.opportunities.CreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load opportunities: %w", err)
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, opp := range opportunities {
		day := opp.CreatedAt.UTC().Format("2006-01-02")
		sums[day] += opp.InvestmentScore
		counts[day]++
	}
	return trendSeries(sums, counts), nil
}

func trendSeries(sums map[string]float64, counts map[string]int) []TrendPoint {
	days := make([]string, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Strings(days)

	series := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		series = append(series, TrendPoint{
			Date:    day,
			Average: sums[day] / float64(counts[day]),
			Count:   counts[day],
		})
	}
	return series
}

// MetricsFromOpportunities converts persisted records back into value-type
// metrics so the statistical operations can run over saved populations.
func MetricsFromOpportunities(records []models.InvestmentOpportunity) []InvestmentMetrics {
	metrics := make([]InvestmentMetrics, 0, len(records))
	for _, r := range records {
		metrics = append(metrics, InvestmentMetrics{
			Location:         r.Location,
			Latitude:         r.Latitude,
			Longitude:        r.Longitude,
			TrafficScore:     r.TrafficScore,
			DemographicScore: r.DemographicScore,
			EconomicScore:    r.EconomicScore,
			RiskScore:        r.RiskScore,
			OverallScore:     r.InvestmentScore,
			PredictedROI:     r.PredictedROI,
			Confidence:       defaultConfidence,
		})
	}
	return metrics
}
