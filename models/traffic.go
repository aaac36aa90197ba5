package models

import "time"

// Traffic level buckets, ordered by congestion.
const (
	TrafficLevelLow    = "low"
	TrafficLevelMedium = "medium"
	TrafficLevelHigh   = "high"
	TrafficLevelSevere = "severe"
)

// TrafficSample is one normalized observation of road congestion for a
// location. Samples are append-only; they are never updated after insert.
type TrafficSample struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	Location        string    `gorm:"column:location;index" json:"location"`
	Latitude        float64   `gorm:"column:latitude" json:"latitude"`
	Longitude       float64   `gorm:"column:longitude" json:"longitude"`
	Timestamp       time.Time `gorm:"column:timestamp;index" json:"timestamp"`
	TrafficLevel    string    `gorm:"column:traffic_level" json:"traffic_level"`
	CongestionScore float64   `gorm:"column:congestion_score" json:"congestion_score"`
	AverageSpeed    float64   `gorm:"column:average_speed" json:"average_speed"`
	TravelTime      float64   `gorm:"column:travel_time" json:"travel_time"`
	Distance        float64   `gorm:"column:distance" json:"distance"`
	Source          string    `gorm:"column:source" json:"source"`
}

func (TrafficSample) TableName() string { return "traffic_samples" }

// TrafficLevelFor buckets a congestion score into a traffic level.
// Thresholds are strict: a score of exactly 0.7 is "high", not "severe".
func TrafficLevelFor(congestionScore float64) string {
	switch {
	case congestionScore > 0.7:
		return TrafficLevelSevere
	case congestionScore > 0.5:
		return TrafficLevelHigh
	case congestionScore > 0.3:
		return TrafficLevelMedium
	default:
		return TrafficLevelLow
	}
}
