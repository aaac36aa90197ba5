package services

import (
	"context"
	"testing"
	"time"
)

func newTestFinder(sampleStore SampleStore, oppStore OpportunityStore) *OpportunityFinder {
	engine := NewScoreEngine(sampleStore, DefaultScoreTables())
	engine.now = func() time.Time { return fixedNow }
	finder := NewOpportunityFinder(engine, oppStore)
	finder.now = func() time.Time { return fixedNow }
	return finder
}

// ── find opportunities ──

func TestFindOpportunitiesImpossibleThreshold(t *testing.T) {
	finder := newTestFinder(&stubSampleStore{}, &stubOpportunityStore{})

	got := finder.FindOpportunities(context.Background(), "atlanta", 0.99, 10)
	if len(got) != 0 {
		t.Errorf("got %d opportunities above 0.99, want 0", len(got))
	}
}

func TestFindOpportunitiesRankedAndTruncated(t *testing.T) {
	// No sample history: every candidate scores the same neutral traffic
	// dimension, so ranking is driven by the static tables and order is
	// stable across calls.
	finder := newTestFinder(&stubSampleStore{}, &stubOpportunityStore{})

	got := finder.FindOpportunities(context.Background(), "atlanta", 0, 5)
	if len(got) != 5 {
		t.Fatalf("got %d opportunities, want 5", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].OverallScore > got[i-1].OverallScore {
			t.Errorf("rank %d (%v) outranks rank %d (%v)", i, got[i].OverallScore, i-1, got[i-1].OverallScore)
		}
	}

	again := finder.FindOpportunities(context.Background(), "atlanta", 0, 5)
	for i := range got {
		if got[i].Location != again[i].Location {
			t.Errorf("ranking not deterministic at %d: %q vs %q", i, got[i].Location, again[i].Location)
		}
	}
}

func TestFindOpportunitiesNoLimit(t *testing.T) {
	finder := newTestFinder(&stubSampleStore{}, &stubOpportunityStore{})
	got := finder.FindOpportunities(context.Background(), "atlanta", 0, 0)
	if len(got) != 20 {
		t.Errorf("got %d opportunities, want all 20 candidates", len(got))
	}
}

func TestEvaluateFactors(t *testing.T) {
	store := &stubSampleStore{}
	day := fixedNow.AddDate(0, 0, -1)
	for i := 0; i < 4; i++ {
		s := sampleAt("Atlanta, GA", day.Add(time.Duration(i)*time.Hour), 0.6)
		store.samples = append(store.samples, s)
	}

	finder := newTestFinder(store, &stubOpportunityStore{})
	metrics := finder.Evaluate(context.Background(), "Atlanta, GA")

	if metrics.Factors["data_points"] != 4 {
		t.Errorf("data_points = %v, want 4", metrics.Factors["data_points"])
	}
	if metrics.Factors["peak_hours"] != 4 {
		t.Errorf("peak_hours = %v, want 4 distinct hours", metrics.Factors["peak_hours"])
	}
	if metrics.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", metrics.Confidence)
	}
}

// ── persistence ──

func TestSaveOpportunity(t *testing.T) {
	oppStore := &stubOpportunityStore{}
	finder := newTestFinder(&stubSampleStore{}, oppStore)

	metrics := finder.Evaluate(context.Background(), "Atlanta, GA")
	id, err := finder.Save(context.Background(), metrics, "Commercial")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Save returned zero id")
	}

	saved, err := oppStore.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if saved.PriceRange != "medium" {
		t.Errorf("price range = %q, want fixed medium", saved.PriceRange)
	}
	if saved.PropertyType != "Commercial" {
		t.Errorf("property type = %q", saved.PropertyType)
	}
	if !saved.IsActive {
		t.Error("new opportunity should be active")
	}
	if saved.InvestmentScore != metrics.OverallScore {
		t.Errorf("investment score = %v, want %v", saved.InvestmentScore, metrics.OverallScore)
	}
}

func TestSaveOpportunityDefaultPropertyType(t *testing.T) {
	oppStore := &stubOpportunityStore{}
	finder := newTestFinder(&stubSampleStore{}, oppStore)

	metrics := finder.Evaluate(context.Background(), "Atlanta, GA")
	id, err := finder.Save(context.Background(), metrics, "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	saved, _ := oppStore.Get(context.Background(), id)
	if saved.PropertyType != "mixed" {
		t.Errorf("property type = %q, want mixed default", saved.PropertyType)
	}
}

func TestSaveOpportunityPersistenceError(t *testing.T) {
	finder := newTestFinder(&stubSampleStore{}, &stubOpportunityStore{err: ErrPersistence})
	metrics := finder.Evaluate(context.Background(), "Atlanta, GA")
	if _, err := finder.Save(context.Background(), metrics, ""); err == nil {
		t.Error("expected error from failing store")
	}
}

// ── market analysis ──

func TestAnalyzeMarket(t *testing.T) {
	finder := newTestFinder(&stubSampleStore{}, &stubOpportunityStore{})

	analysis, err := finder.AnalyzeMarket(context.Background(), "atlanta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.LocationsAnalyzed != 20 {
		t.Errorf("locations analyzed = %d, want 20", analysis.LocationsAnalyzed)
	}
	if len(analysis.TopOpportunities) != 5 {
		t.Errorf("top opportunities = %d, want 5", len(analysis.TopOpportunities))
	}

	var scoreTotal int
	for _, count := range analysis.ScoreDistribution {
		scoreTotal += count
	}
	if scoreTotal != 20 {
		t.Errorf("score distribution totals %d, want 20", scoreTotal)
	}
}

// ── recommendations ──

func TestRecommendations(t *testing.T) {
	finder := newTestFinder(&stubSampleStore{}, &stubOpportunityStore{})

	recs := finder.Recommendations(context.Background(), "atlanta")
	for _, rec := range recs {
		if rec.OverallScore < 0.6 {
			t.Errorf("%s recommended with score %v below threshold", rec.Location, rec.OverallScore)
		}
		if rec.RiskLevel == "" {
			t.Errorf("%s has no risk level", rec.Location)
		}
		if len(rec.PropertyTypes) == 0 {
			t.Errorf("%s has no property types", rec.Location)
		}
	}
}
