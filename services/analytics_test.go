package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

func metricsWith(traffic, demographic, economic, risk float64) InvestmentMetrics {
	return BuildMetrics("x", 0, 0, traffic, demographic, economic, risk, 0.8, nil)
}

// ── correlation ──

func TestCorrelateTooFewSamples(t *testing.T) {
	population := []InvestmentMetrics{metricsWith(0.5, 0.5, 0.5, 0.5)}
	_, err := Correlate(population)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestCorrelateNaNFree(t *testing.T) {
	// Identical vectors: zero variance makes the raw estimator NaN for every
	// factor; the report must come back with zeros instead.
	var population []InvestmentMetrics
	for i := 0; i < 6; i++ {
		population = append(population, metricsWith(0.5, 0.5, 0.5, 0.5))
	}

	report, err := Correlate(population)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for factor, coefficient := range report.Coefficients {
		if math.IsNaN(coefficient) {
			t.Errorf("%s coefficient is NaN", factor)
		}
		if coefficient != 0.0 {
			t.Errorf("%s = %v, want 0.0 for zero-variance input", factor, coefficient)
		}
	}
	if len(report.Strong) != 0 {
		t.Errorf("strong correlations = %v, want none", report.Strong)
	}
}

func TestCorrelateMonotoneFactor(t *testing.T) {
	// Traffic score varies while everything else is fixed, so traffic and ROI
	// move together and the correlation should be strongly positive.
	var population []InvestmentMetrics
	for i := 0; i < 8; i++ {
		population = append(population, metricsWith(0.1+float64(i)*0.1, 0.5, 0.5, 0.5))
	}

	report, err := Correlate(population)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := report.Coefficients["traffic_score_vs_roi"]; got < 0.99 {
		t.Errorf("traffic_score_vs_roi = %v, want ~1.0", got)
	}
	if len(report.Strong) == 0 {
		t.Fatal("expected strong correlations")
	}
	for i := 1; i < len(report.Strong); i++ {
		if math.Abs(report.Strong[i].Coefficient) > math.Abs(report.Strong[i-1].Coefficient)+1e-9 {
			t.Errorf("strong correlations not sorted by magnitude at %d", i)
		}
	}
	if report.SampleSize != 8 {
		t.Errorf("sample size = %d, want 8", report.SampleSize)
	}
}

func TestCorrelationSymmetric(t *testing.T) {
	x := []float64{0.1, 0.4, 0.2, 0.9, 0.6}
	y := []float64{0.3, 0.8, 0.1, 0.7, 0.5}

	xy := safeCorrelation(x, y)
	yx := safeCorrelation(y, x)
	if math.Abs(xy-yx) > 1e-12 {
		t.Errorf("corr(x,y) = %v, corr(y,x) = %v, want equal", xy, yx)
	}
}

// ── segmentation ──

func TestSegmentOpportunitiesUnknownCriterion(t *testing.T) {
	_, err := SegmentOpportunities(nil, "vibes")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestSegmentOpportunitiesPartition(t *testing.T) {
	population := []InvestmentMetrics{
		{OverallScore: 0.85, PredictedROI: 0.12, RiskScore: 0.2},
		{OverallScore: 0.7, PredictedROI: 0.07, RiskScore: 0.4},
		{OverallScore: 0.5, PredictedROI: 0.04, RiskScore: 0.7},
		{OverallScore: 0.3, PredictedROI: 0.03, RiskScore: 0.5},
		{OverallScore: 0.65, PredictedROI: 0.1, RiskScore: 0.25},
	}

	for _, criterion := range []string{SegmentByScore, SegmentByROI, SegmentByRisk} {
		t.Run(criterion, func(t *testing.T) {
			seg, err := SegmentOpportunities(population, criterion)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			total := 0
			var share float64
			for _, segment := range seg.Segments {
				if segment.Count == 0 {
					t.Error("empty bucket reported")
				}
				total += segment.Count
				share += segment.Percentage
			}
			if total != len(population) {
				t.Errorf("buckets hold %d members, want exactly %d", total, len(population))
			}
			if math.Abs(share-100.0) > 0.001 {
				t.Errorf("percentages sum to %v, want 100", share)
			}
		})
	}
}

func TestSegmentOpportunitiesScoreBands(t *testing.T) {
	population := []InvestmentMetrics{
		{OverallScore: 0.9},  // premium
		{OverallScore: 0.8},  // premium boundary
		{OverallScore: 0.6},  // high_value boundary
		{OverallScore: 0.45}, // moderate
		{OverallScore: 0.1},  // developing
	}

	seg, err := SegmentOpportunities(population, SegmentByScore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Segments["premium"].Count != 2 {
		t.Errorf("premium count = %d, want 2", seg.Segments["premium"].Count)
	}
	if seg.Segments["high_value"].Count != 1 {
		t.Errorf("high_value count = %d, want 1", seg.Segments["high_value"].Count)
	}
	if seg.Segments["moderate"].Count != 1 {
		t.Errorf("moderate count = %d, want 1", seg.Segments["moderate"].Count)
	}
	if seg.Segments["developing"].Count != 1 {
		t.Errorf("developing count = %d, want 1", seg.Segments["developing"].Count)
	}
}

func TestSegmentTopPerformers(t *testing.T) {
	var population []InvestmentMetrics
	for i := 0; i < 6; i++ {
		population = append(population, InvestmentMetrics{OverallScore: 0.8 + float64(i)*0.02})
	}

	seg, err := SegmentOpportunities(population, SegmentByScore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	premium := seg.Segments["premium"]
	if len(premium.TopPerformers) != 3 {
		t.Fatalf("top performers = %d, want 3", len(premium.TopPerformers))
	}
	if premium.TopPerformers[0].OverallScore < premium.TopPerformers[2].OverallScore {
		t.Error("top performers not sorted descending")
	}
}

func TestRoiTierAllHigh(t *testing.T) {
	population := []InvestmentMetrics{
		{PredictedROI: 0.1}, {PredictedROI: 0.1}, {PredictedROI: 0.1},
	}
	seg, err := SegmentOpportunities(population, SegmentByROI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seg.Segments) != 1 {
		t.Fatalf("segments = %d, want single high_roi bucket", len(seg.Segments))
	}
	if seg.Segments["high_roi"].Count != 3 {
		t.Errorf("high_roi count = %d, want 3", seg.Segments["high_roi"].Count)
	}
}

// ── comparison ──

func newTestAnalytics(sampleStore SampleStore, oppStore OpportunityStore) *AnalyticsEngine {
	finder := newTestFinder(sampleStore, oppStore)
	engine := NewAnalyticsEngine(finder, sampleStore, oppStore)
	engine.now = func() time.Time { return fixedNow }
	return engine
}

func TestCompareLocationsTooFew(t *testing.T) {
	analytics := newTestAnalytics(&stubSampleStore{}, &stubOpportunityStore{})
	_, err := analytics.CompareLocations(context.Background(), []string{"Atlanta, GA"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestCompareLocationsIdenticalInputs(t *testing.T) {
	// Same location twice: tie on every dimension, zero variance.
	analytics := newTestAnalytics(&stubSampleStore{}, &stubOpportunityStore{})

	comparison, err := analytics.CompareLocations(context.Background(), []string{"Atlanta, GA", "Atlanta, GA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comparison.Best.OverallScore != comparison.Worst.OverallScore {
		t.Errorf("best %v != worst %v for identical inputs", comparison.Best.OverallScore, comparison.Worst.OverallScore)
	}
	if comparison.ScoreVariance != 0 {
		t.Errorf("score variance = %v, want 0", comparison.ScoreVariance)
	}
	if comparison.ROIVariance != 0 {
		t.Errorf("roi variance = %v, want 0", comparison.ROIVariance)
	}
}

func TestCompareLocationsRanking(t *testing.T) {
	// Atlanta has table entries (0.6/0.6/0.5); an unknown town scores all
	// neutral, so Atlanta must rank first.
	analytics := newTestAnalytics(&stubSampleStore{}, &stubOpportunityStore{})

	comparison, err := analytics.CompareLocations(context.Background(), []string{"Nowhere, GA", "Atlanta, GA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comparison.Best.Location != "Atlanta, GA" {
		t.Errorf("best = %q, want Atlanta", comparison.Best.Location)
	}
	if comparison.Rankings[0].OverallScore < comparison.Rankings[1].OverallScore {
		t.Error("rankings not descending")
	}
}

// ── trends ──

func TestTrafficTrend(t *testing.T) {
	store := &stubSampleStore{samples: []models.TrafficSample{
		sampleAt("Atlanta, GA", fixedNow.AddDate(0, 0, -2).Add(8*time.Hour), 0.4),
		sampleAt("Atlanta, GA", fixedNow.AddDate(0, 0, -2).Add(9*time.Hour), 0.6),
		sampleAt("Atlanta, GA", fixedNow.AddDate(0, 0, -1), 0.8),
	}}
	analytics := newTestAnalytics(store, &stubOpportunityStore{})

	trend, err := analytics.TrafficTrend(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("got %d points, want 2", len(trend))
	}
	if trend[0].Date >= trend[1].Date {
		t.Error("trend not date-ordered")
	}
	if math.Abs(trend[0].Average-0.5) > 0.001 {
		t.Errorf("day mean = %v, want 0.5", trend[0].Average)
	}
	if trend[0].Count != 2 {
		t.Errorf("day count = %d, want 2", trend[0].Count)
	}
}

func TestOpportunityTrend(t *testing.T) {
	oppStore := &stubOpportunityStore{records: []models.InvestmentOpportunity{
		{ID: 1, InvestmentScore: 0.6, CreatedAt: fixedNow.AddDate(0, 0, -3)},
		{ID: 2, InvestmentScore: 0.8, CreatedAt: fixedNow.AddDate(0, 0, -3).Add(time.Hour)},
		{ID: 3, InvestmentScore: 0.5, CreatedAt: fixedNow.AddDate(0, 0, -1)},
	}}
	analytics := newTestAnalytics(&stubSampleStore{}, oppStore)

	trend, err := analytics.OpportunityTrend(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("got %d points, want 2", len(trend))
	}
	if math.Abs(trend[0].Average-0.7) > 0.001 {
		t.Errorf("day mean = %v, want 0.7", trend[0].Average)
	}
}

// ── conversion ──

func TestMetricsFromOpportunities(t *testing.T) {
	records := []models.InvestmentOpportunity{{
		Location:        "Atlanta, GA",
		InvestmentScore: 0.62,
		TrafficScore:    0.45,
		PredictedROI:    0.055,
	}}
	metrics := MetricsFromOpportunities(records)
	if len(metrics) != 1 {
		t.Fatalf("got %d metrics, want 1", len(metrics))
	}
	if metrics[0].OverallScore != 0.62 {
		t.Errorf("overall = %v, want investment score carried over", metrics[0].OverallScore)
	}
	if metrics[0].PredictedROI != 0.055 {
		t.Errorf("roi = %v", metrics[0].PredictedROI)
	}
}
