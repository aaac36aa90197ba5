package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Abhisg5/trafficDetector/models"
)

// SampleStore is the queryable, append-only store of traffic samples.
type SampleStore interface {
	Append(ctx context.Context, sample *models.TrafficSample) error
	Latest(ctx context.Context, location string) (models.TrafficSample, error)
	// SamplesSince returns a location's samples newer than the cutoff,
	// ascending by timestamp.
	SamplesSince(ctx context.Context, location string, since time.Time) ([]models.TrafficSample, error)
	// AllSamplesSince returns every location's samples newer than the cutoff,
	// ascending by timestamp.
	AllSamplesSince(ctx context.Context, since time.Time) ([]models.TrafficSample, error)
}

// OpportunityStore persists promoted investment opportunities.
type OpportunityStore interface {
	Insert(ctx context.Context, opp *models.InvestmentOpportunity) (uint, error)
	Get(ctx context.Context, id uint) (models.InvestmentOpportunity, error)
	// List returns opportunities ordered by investment score descending.
	List(ctx context.Context, activeOnly bool) ([]models.InvestmentOpportunity, error)
	SetActive(ctx context.Context, id uint, active bool) error
	CreatedSince(ctx context.Context, since time.Time) ([]models.InvestmentOpportunity, error)
}

type GormSampleStore struct {
	db *gorm.DB
}

func NewGormSampleStore(db *gorm.DB) *GormSampleStore {
	return &GormSampleStore{db: db}
}

func (s *GormSampleStore) Append(ctx context.Context, sample *models.TrafficSample) error {
	if err := s.db.WithContext(ctx).Create(sample).Error; err != nil {
		return fmt.Errorf("%w: insert traffic sample: %v", ErrPersistence, err)
	}
	return nil
}

func (s *GormSampleStore) Latest(ctx context.Context, location string) (models.TrafficSample, error) {
	var sample models.TrafficSample
	err := s.db.WithContext(ctx).
		Where("location = ?", location).
		Order("timestamp DESC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TrafficSample{}, ErrNoData
	}
	if err != nil {
		return models.TrafficSample{}, err
	}
	return sample, nil
}

func (s *GormSampleStore) SamplesSince(ctx context.Context, location string, since time.Time) ([]models.TrafficSample, error) {
	var samples []models.TrafficSample
	err := s.db.WithContext(ctx).
		Where("location = ? AND timestamp >= ?", location, since).
		Order("timestamp ASC").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *GormSampleStore) AllSamplesSince(ctx context.Context, since time.Time) ([]models.TrafficSample, error) {
	var samples []models.TrafficSample
	err := s.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

type GormOpportunityStore struct {
	db *gorm.DB
}

func NewGormOpportunityStore(db *gorm.DB) *GormOpportunityStore {
	return &GormOpportunityStore{db: db}
}

func (s *GormOpportunityStore) Insert(ctx context.Context, opp *models.InvestmentOpportunity) (uint, error) {
	if err := s.db.WithContext(ctx).Create(opp).Error; err != nil {
		return 0, fmt.Errorf("%w: insert opportunity: %v", ErrPersistence, err)
	}
	return opp.ID, nil
}

func (s *GormOpportunityStore) Get(ctx context.Context, id uint) (models.InvestmentOpportunity, error) {
	var opp models.InvestmentOpportunity
	err := s.db.WithContext(ctx).First(&opp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.InvestmentOpportunity{}, ErrNoData
	}
	if err != nil {
		return models.InvestmentOpportunity{}, err
	}
	return opp, nil
}

func (s *GormOpportunityStore) List(ctx context.Context, activeOnly bool) ([]models.InvestmentOpportunity, error) {
	query := s.db.WithContext(ctx).Model(&models.InvestmentOpportunity{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var opportunities []models.InvestmentOpportunity
	if err := query.Order("investment_score DESC").Find(&opportunities).Error; err != nil {
		return nil, err
	}
	return opportunities, nil
}

func (s *GormOpportunityStore) SetActive(ctx context.Context, id uint, active bool) error {
	result := s.db.WithContext(ctx).
		Model(&models.InvestmentOpportunity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: update opportunity %d: %v", ErrPersistence, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoData
	}
	return nil
}

func (s *GormOpportunityStore) CreatedSince(ctx context.Context, since time.Time) ([]models.InvestmentOpportunity, error) {
	var opportunities []models.InvestmentOpportunity
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&opportunities).Error
	if err != nil {
		return nil, err
	}
	return opportunities, nil
}
