package services

import "math"

// Overall score weights. Fixed design constants, not configurable per call.
const (
	weightTraffic     = 0.40
	weightDemographic = 0.25
	weightEconomic    = 0.25
	weightSafety      = 0.10
)

// ROI model bounds. The floor and ceiling are business constraints on
// plausible returns.
const (
	baseROI = 0.05
	minROI  = 0.02
	maxROI  = 0.15
)

// InvestmentMetrics is the scored snapshot for one location at one evaluation
// instant. It is a plain value: construct it through BuildMetrics, never
// mutate it afterwards.
type InvestmentMetrics struct {
	Location         string             `json:"location"`
	Latitude         float64            `json:"latitude"`
	Longitude        float64            `json:"longitude"`
	TrafficScore     float64            `json:"traffic_score"`
	DemographicScore float64            `json:"demographic_score"`
	EconomicScore    float64            `json:"economic_score"`
	RiskScore        float64            `json:"risk_score"`
	OverallScore     float64            `json:"overall_score"`
	PredictedROI     float64            `json:"predicted_roi"`
	Confidence       float64            `json:"confidence"`
	Factors          map[string]float64 `json:"factors"`
}

// OverallScore blends the four component scores. Risk enters inverted: lower
// risk raises the score.
func OverallScore(traffic, demographic, economic, risk float64) float64 {
	return traffic*weightTraffic +
		demographic*weightDemographic +
		economic*weightEconomic +
		(1-risk)*weightSafety
}

// PredictROI maps a score vector to a bounded predicted ROI via a
// multiplicative heuristic around the 5% base. Pure and deterministic.
func PredictROI(m InvestmentMetrics) float64 {
	trafficMultiplier := 1 + (m.TrafficScore-0.5)*0.4
	demographicMultiplier := 1 + (m.DemographicScore-0.5)*0.3
	economicMultiplier := 1 + (m.EconomicScore-0.5)*0.3
	riskAdjustment := 1 - m.RiskScore*0.2

	roi := baseROI * trafficMultiplier * demographicMultiplier * economicMultiplier * riskAdjustment
	return math.Max(minROI, math.Min(maxROI, roi))
}

// BuildMetrics constructs a finalized InvestmentMetrics in two phases: the
// score vector and overall score first, then the ROI as a pure function of
// that vector. A partially built value never escapes.
func BuildMetrics(location string, lat, lng float64, traffic, demographic, economic, risk, confidence float64, factors map[string]float64) InvestmentMetrics {
	m := InvestmentMetrics{
		Location:         location,
		Latitude:         lat,
		Longitude:        lng,
		TrafficScore:     traffic,
		DemographicScore: demographic,
		EconomicScore:    economic,
		RiskScore:        risk,
		OverallScore:     OverallScore(traffic, demographic, economic, risk),
		Confidence:       confidence,
		Factors:          factors,
	}
	m.PredictedROI = PredictROI(m)
	return m
}

// RiskLevel labels a risk score for presentation.
func RiskLevel(riskScore float64) string {
	switch {
	case riskScore < 0.3:
		return "Low"
	case riskScore < 0.6:
		return "Medium"
	default:
		return "High"
	}
}

// RecommendedPropertyTypes derives property-type suggestions from the score
// vector.
func RecommendedPropertyTypes(m InvestmentMetrics) []string {
	var types []string

	if m.TrafficScore > 0.7 {
		types = append(types, "Commercial", "Mixed-use")
	}
	if m.DemographicScore > 0.7 {
		types = append(types, "Residential", "Luxury")
	}
	if m.EconomicScore > 0.7 {
		types = append(types, "Office", "Retail")
	}

	if len(types) == 0 {
		types = []string{"Mixed-use", "Residential"}
	}
	return types
}

// KeyFactors lists the attractive signals in a score vector.
func KeyFactors(m InvestmentMetrics) []string {
	var factors []string

	if m.TrafficScore > 0.7 {
		factors = append(factors, "High traffic volume")
	} else if m.TrafficScore > 0.5 {
		factors = append(factors, "Moderate traffic flow")
	}

	if m.DemographicScore > 0.7 {
		factors = append(factors, "High-income demographic")
	} else if m.DemographicScore > 0.5 {
		factors = append(factors, "Growing population")
	}

	if m.EconomicScore > 0.7 {
		factors = append(factors, "Strong local economy")
	} else if m.EconomicScore > 0.5 {
		factors = append(factors, "Economic growth potential")
	}

	if m.RiskScore < 0.3 {
		factors = append(factors, "Low investment risk")
	} else if m.RiskScore < 0.5 {
		factors = append(factors, "Moderate risk profile")
	}

	return factors
}
