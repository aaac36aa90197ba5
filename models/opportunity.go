package models

import "time"

// InvestmentOpportunity is a persisted, identified scoring result for a
// location. Rows are soft-deleted via IsActive; the service never hard-deletes.
type InvestmentOpportunity struct {
	ID               uint      `gorm:"column:id;primaryKey" json:"id"`
	Location         string    `gorm:"column:location;index" json:"location"`
	Latitude         float64   `gorm:"column:latitude" json:"latitude"`
	Longitude        float64   `gorm:"column:longitude" json:"longitude"`
	InvestmentScore  float64   `gorm:"column:investment_score" json:"investment_score"`
	TrafficScore     float64   `gorm:"column:traffic_score" json:"traffic_score"`
	DemographicScore float64   `gorm:"column:demographic_score" json:"demographic_score"`
	EconomicScore    float64   `gorm:"column:economic_score" json:"economic_score"`
	RiskScore        float64   `gorm:"column:risk_score" json:"risk_score"`
	PredictedROI     float64   `gorm:"column:predicted_roi" json:"predicted_roi"`
	PropertyType     string    `gorm:"column:property_type" json:"property_type"`
	PriceRange       string    `gorm:"column:price_range" json:"price_range"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
	IsActive         bool      `gorm:"column:is_active;default:true" json:"is_active"`
}

func (InvestmentOpportunity) TableName() string { return "investment_opportunities" }
