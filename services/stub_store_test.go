package services

import (
	"context"
	"sort"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

// stubSampleStore is an in-memory SampleStore for engine tests.
type stubSampleStore struct {
	samples []models.TrafficSample
	err     error
}

func (s *stubSampleStore) Append(_ context.Context, sample *models.TrafficSample) error {
	if s.err != nil {
		return s.err
	}
	s.samples = append(s.samples, *sample)
	return nil
}

func (s *stubSampleStore) Latest(_ context.Context, location string) (models.TrafficSample, error) {
	if s.err != nil {
		return models.TrafficSample{}, s.err
	}
	var latest *models.TrafficSample
	for i := range s.samples {
		if s.samples[i].Location != location {
			continue
		}
		if latest == nil || s.samples[i].Timestamp.After(latest.Timestamp) {
			latest = &s.samples[i]
		}
	}
	if latest == nil {
		return models.TrafficSample{}, ErrNoData
	}
	return *latest, nil
}

func (s *stubSampleStore) SamplesSince(_ context.Context, location string, since time.Time) ([]models.TrafficSample, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.TrafficSample
	for _, sample := range s.samples {
		if sample.Location == location && !sample.Timestamp.Before(since) {
			out = append(out, sample)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (s *stubSampleStore) AllSamplesSince(_ context.Context, since time.Time) ([]models.TrafficSample, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.TrafficSample
	for _, sample := range s.samples {
		if !sample.Timestamp.Before(since) {
			out = append(out, sample)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func sortByTimestamp(samples []models.TrafficSample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}

// stubOpportunityStore is an in-memory OpportunityStore.
type stubOpportunityStore struct {
	records []models.InvestmentOpportunity
	nextID  uint
	err     error
}

func (s *stubOpportunityStore) Insert(_ context.Context, opp *models.InvestmentOpportunity) (uint, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.nextID++
	opp.ID = s.nextID
	s.records = append(s.records, *opp)
	return opp.ID, nil
}

func (s *stubOpportunityStore) Get(_ context.Context, id uint) (models.InvestmentOpportunity, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.InvestmentOpportunity{}, ErrNoData
}

func (s *stubOpportunityStore) List(_ context.Context, activeOnly bool) ([]models.InvestmentOpportunity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.InvestmentOpportunity
	for _, r := range s.records {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InvestmentScore > out[j].InvestmentScore
	})
	return out, nil
}

func (s *stubOpportunityStore) SetActive(_ context.Context, id uint, active bool) error {
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].IsActive = active
			s.records[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNoData
}

func (s *stubOpportunityStore) CreatedSince(_ context.Context, since time.Time) ([]models.InvestmentOpportunity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.InvestmentOpportunity
	for _, r := range s.records {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// sampleAt builds a test sample with the level derived from congestion.
func sampleAt(location string, ts time.Time, congestion float64) models.TrafficSample {
	return models.TrafficSample{
		Location:        location,
		Timestamp:       ts,
		TrafficLevel:    models.TrafficLevelFor(congestion),
		CongestionScore: congestion,
		Source:          "test",
	}
}
