package services

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Abhisg5/trafficDetector/models"
)

// NeutralScore is the default for any dimension with no usable signal.
const NeutralScore = 0.5

// DefaultTrafficWindowDays is the lookback for the traffic score.
const DefaultTrafficWindowDays = 30

// ScoreTables holds the static demographic/economic/risk heuristics, keyed by
// normalized locality. They stand in for live data integrations; unmatched
// locations score neutral.
type ScoreTables struct {
	Demographic map[string]float64
	Economic    map[string]float64
	Risk        map[string]float64
}

func DefaultScoreTables() ScoreTables {
	return ScoreTables{
		Demographic: map[string]float64{
			"san francisco": 0.8,
			"new york":      0.9,
			"los angeles":   0.7,
			"chicago":       0.6,
			"miami":         0.5,
			"seattle":       0.8,
			"austin":        0.7,
			"denver":        0.6,
			"atlanta":       0.6,
			"boston":        0.8,
		},
		Economic: map[string]float64{
			"san francisco": 0.9,
			"new york":      0.9,
			"los angeles":   0.8,
			"chicago":       0.7,
			"miami":         0.6,
			"seattle":       0.8,
			"austin":        0.7,
			"denver":        0.6,
			"atlanta":       0.6,
			"boston":        0.8,
		},
		Risk: map[string]float64{
			"san francisco": 0.3,
			"new york":      0.2,
			"los angeles":   0.4,
			"chicago":       0.5,
			"miami":         0.6,
			"seattle":       0.3,
			"austin":        0.4,
			"denver":        0.4,
			"atlanta":       0.5,
			"boston":        0.3,
		},
	}
}

// ScoreEngine computes the four component scores for a location. The traffic
// dimension reads sample history; the other three are static table lookups.
type ScoreEngine struct {
	samples SampleStore
	tables  ScoreTables
	now     func() time.Time
}

func NewScoreEngine(samples SampleStore, tables ScoreTables) *ScoreEngine {
	return &ScoreEngine{
		samples: samples,
		tables:  tables,
		now:     time.Now,
	}
}

// TrafficScore maps a location's mean congestion over the window to an
// investment score, weighted by pattern consistency. The scoring path never
// fails the caller: missing data and internal errors degrade to neutral.
func (e *ScoreEngine) TrafficScore(ctx context.Context, location string, days int) float64 {
	if days <= 0 {
		days = DefaultTrafficWindowDays
	}

	cutoff := e.now().UTC().AddDate(0, 0, -days)
	samples, err := e.samples.SamplesSince(ctx, location, cutoff)
	if err != nil {
		log.Printf("traffic score query failed for %s: %v", location, err)
		return NeutralScore
	}
	if len(samples) == 0 {
		return NeutralScore
	}

	avgCongestion := stat.Mean(congestionScores(samples), nil)

	// Higher congestion reads as higher commercial potential, so this is
	// monotone increasing rather than a raw pass-through.
	var score float64
	switch {
	case avgCongestion >= 0.7:
		score = 0.9
	case avgCongestion >= 0.5:
		score = 0.7
	case avgCongestion >= 0.3:
		score = 0.6
	default:
		score = 0.4
	}

	score *= ConsistencyScore(samples)
	return math.Min(score, 1.0)
}

// ConsistencyScore is the inverse of the spread across weekday means: the
// population standard deviation of per-weekday mean congestion, mapped to
// max(0.1, 1-sigma). Fewer than two samples or a single represented weekday
// yields the neutral 0.5.
func ConsistencyScore(samples []models.TrafficSample) float64 {
	if len(samples) < 2 {
		return NeutralScore
	}

	byWeekday := make(map[time.Weekday][]float64)
	for _, s := range samples {
		day := s.Timestamp.Weekday()
		byWeekday[day] = append(byWeekday[day], s.CongestionScore)
	}

	if len(byWeekday) < 2 {
		return NeutralScore
	}

	means := make([]float64, 0, len(byWeekday))
	for _, scores := range byWeekday {
		means = append(means, stat.Mean(scores, nil))
	}

	stddev := math.Sqrt(stat.PopVariance(means, nil))
	return math.Max(0.1, 1.0-stddev)
}

// PeakHours reports mean congestion per hour-of-day for the sample set. Used
// by downstream analytics, not by the traffic score itself.
func PeakHours(samples []models.TrafficSample) map[int]float64 {
	byHour := make(map[int][]float64)
	for _, s := range samples {
		hour := s.Timestamp.Hour()
		byHour[hour] = append(byHour[hour], s.CongestionScore)
	}

	peaks := make(map[int]float64, len(byHour))
	for hour, scores := range byHour {
		peaks[hour] = stat.Mean(scores, nil)
	}
	return peaks
}

func (e *ScoreEngine) DemographicScore(location string) float64 {
	return lookupScore(e.tables.Demographic, location)
}

func (e *ScoreEngine) EconomicScore(location string) float64 {
	return lookupScore(e.tables.Economic, location)
}

func (e *ScoreEngine) RiskScore(location string) float64 {
	return lookupScore(e.tables.Risk, location)
}

// SamplesInWindow exposes the engine's sample window query for callers that
// need the raw history alongside the score (factor collection, insights).
func (e *ScoreEngine) SamplesInWindow(ctx context.Context, location string, days int) []models.TrafficSample {
	if days <= 0 {
		days = DefaultTrafficWindowDays
	}
	cutoff := e.now().UTC().AddDate(0, 0, -days)
	samples, err := e.samples.SamplesSince(ctx, location, cutoff)
	if err != nil {
		log.Printf("sample window query failed for %s: %v", location, err)
		return nil
	}
	return samples
}

func lookupScore(table map[string]float64, location string) float64 {
	if score, ok := table[NormalizeLocationKey(location)]; ok {
		return score
	}
	return NeutralScore
}

func congestionScores(samples []models.TrafficSample) []float64 {
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = s.CongestionScore
	}
	return scores
}

// HourStat is one hour-of-day bucket in a traffic pattern report.
type HourStat struct {
	Hour              int     `json:"hour"`
	AverageCongestion float64 `json:"average_congestion"`
	StdCongestion     float64 `json:"std_congestion"`
	DataPoints        int     `json:"data_points"`
}

// WeekdayStat is one weekday bucket in a traffic pattern report.
type WeekdayStat struct {
	Weekday           string  `json:"weekday"`
	AverageCongestion float64 `json:"average_congestion"`
	DataPoints        int     `json:"data_points"`
}

// PatternReport summarizes a location's congestion behavior over a window.
type PatternReport struct {
	Location          string         `json:"location"`
	DataPoints        int            `json:"total_data_points"`
	AverageCongestion float64        `json:"average_congestion"`
	StdCongestion     float64        `json:"std_congestion"`
	MinCongestion     float64        `json:"min_congestion"`
	MaxCongestion     float64        `json:"max_congestion"`
	LevelDistribution map[string]int `json:"traffic_level_distribution"`
	HourlyStats       []HourStat     `json:"hourly_analysis"`
	WeekdayStats      []WeekdayStat  `json:"daily_analysis"`
	PeakHours         []HourStat     `json:"peak_hours"`
	WeekendAverage    float64        `json:"weekend_average"`
	WeekdayAverage    float64        `json:"weekday_average"`
	ConsistentPattern bool           `json:"has_consistent_patterns"`
}

// AnalyzeTrafficPatterns builds a pattern report from a location's samples.
// Peak hours are those whose mean congestion exceeds the overall mean by more
// than one standard deviation, capped at the top five.
func AnalyzeTrafficPatterns(location string, samples []models.TrafficSample) (PatternReport, error) {
	if len(samples) == 0 {
		return PatternReport{}, ErrNoData
	}

	scores := congestionScores(samples)
	avg := stat.Mean(scores, nil)
	stddev := math.Sqrt(stat.PopVariance(scores, nil))

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		minScore = math.Min(minScore, s)
		maxScore = math.Max(maxScore, s)
	}

	levels := make(map[string]int)
	for _, s := range samples {
		levels[s.TrafficLevel]++
	}

	byHour := make(map[int][]float64)
	byWeekday := make(map[time.Weekday][]float64)
	var weekend, weekday []float64
	for _, s := range samples {
		byHour[s.Timestamp.Hour()] = append(byHour[s.Timestamp.Hour()], s.CongestionScore)
		day := s.Timestamp.Weekday()
		byWeekday[day] = append(byWeekday[day], s.CongestionScore)
		if day == time.Saturday || day == time.Sunday {
			weekend = append(weekend, s.CongestionScore)
		} else {
			weekday = append(weekday, s.CongestionScore)
		}
	}

	hourly := make([]HourStat, 0, len(byHour))
	for hour, hourScores := range byHour {
		hourly = append(hourly, HourStat{
			Hour:              hour,
			AverageCongestion: stat.Mean(hourScores, nil),
			StdCongestion:     math.Sqrt(stat.PopVariance(hourScores, nil)),
			DataPoints:        len(hourScores),
		})
	}
	sort.Slice(hourly, func(i, j int) bool { return hourly[i].Hour < hourly[j].Hour })

	daily := make([]WeekdayStat, 0, len(byWeekday))
	for day, dayScores := range byWeekday {
		daily = append(daily, WeekdayStat{
			Weekday:           day.String(),
			AverageCongestion: stat.Mean(dayScores, nil),
			DataPoints:        len(dayScores),
		})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Weekday < daily[j].Weekday })

	var peaks []HourStat
	for _, h := range hourly {
		if h.AverageCongestion > avg+stddev {
			peaks = append(peaks, h)
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].AverageCongestion > peaks[j].AverageCongestion })
	if len(peaks) > 5 {
		peaks = peaks[:5]
	}

	report := PatternReport{
		Location:          location,
		DataPoints:        len(samples),
		AverageCongestion: avg,
		StdCongestion:     stddev,
		MinCongestion:     minScore,
		MaxCongestion:     maxScore,
		LevelDistribution: levels,
		HourlyStats:       hourly,
		WeekdayStats:      daily,
		PeakHours:         peaks,
		ConsistentPattern: stddev < 0.2,
	}
	if len(weekend) > 0 {
		report.WeekendAverage = stat.Mean(weekend, nil)
	}
	if len(weekday) > 0 {
		report.WeekdayAverage = stat.Mean(weekday, nil)
	}
	return report, nil
}
