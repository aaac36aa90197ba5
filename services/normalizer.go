package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

// tomtomFlowResponse mirrors the TomTom flow segment payload.
type tomtomFlowResponse struct {
	FlowSegmentData *struct {
		CurrentSpeed       float64 `json:"currentSpeed"`
		FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
		CurrentTravelTime  float64 `json:"currentTravelTime"`
		FreeFlowTravelTime float64 `json:"freeFlowTravelTime"`
	} `json:"flowSegmentData"`
}

// hereFlowResponse mirrors the deeply nested HERE flow payload.
type hereFlowResponse struct {
	RWS []struct {
		RW []struct {
			FIS []struct {
				FI []struct {
					CF []struct {
						SP float64 `json:"SP"`
						FF float64 `json:"FF"`
					} `json:"CF"`
				} `json:"FI"`
			} `json:"FIS"`
		} `json:"RW"`
	} `json:"RWS"`
}

// SensorReading is the MQTT sensor-feed payload shape.
type SensorReading struct {
	TS          string  `json:"ts"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SpeedKMH    float64 `json:"speed_kmh"`
	FreeFlowKMH float64 `json:"free_flow_kmh"`
}

// CongestionScore normalizes current vs free-flow speed to [0,1]. A
// non-positive free-flow speed yields the neutral 0.5 fallback. The result is
// clamped so measurement noise (current > free-flow) cannot go negative.
func CongestionScore(currentSpeed, freeFlowSpeed float64) float64 {
	if freeFlowSpeed <= 0 {
		return 0.5
	}
	return clamp01(1 - currentSpeed/freeFlowSpeed)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeTomTom converts one TomTom flow response into a TrafficSample.
// Returns ErrNoData when the payload lacks the flow segment substructure.
func NormalizeTomTom(location string, lat, lng float64, payload []byte, observedAt time.Time) (models.TrafficSample, error) {
	var resp tomtomFlowResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.TrafficSample{}, fmt.Errorf("%w: tomtom payload: %v", ErrProvider, err)
	}
	if resp.FlowSegmentData == nil {
		return models.TrafficSample{}, fmt.Errorf("%w: tomtom response has no flow segment data", ErrNoData)
	}

	flow := resp.FlowSegmentData
	return newSample(location, lat, lng, "tomtom", flow.CurrentSpeed, flow.FreeFlowSpeed, observedAt), nil
}

// NormalizeHere converts one HERE flow response into a TrafficSample.
// Returns ErrNoData when the nested flow structure is absent or empty.
func NormalizeHere(location string, lat, lng float64, payload []byte, observedAt time.Time) (models.TrafficSample, error) {
	var resp hereFlowResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.TrafficSample{}, fmt.Errorf("%w: here payload: %v", ErrProvider, err)
	}

	if len(resp.RWS) == 0 || len(resp.RWS[0].RW) == 0 ||
		len(resp.RWS[0].RW[0].FIS) == 0 || len(resp.RWS[0].RW[0].FIS[0].FI) == 0 ||
		len(resp.RWS[0].RW[0].FIS[0].FI[0].CF) == 0 {
		return models.TrafficSample{}, fmt.Errorf("%w: here response has no traffic flow data", ErrNoData)
	}

	cf := resp.RWS[0].RW[0].FIS[0].FI[0].CF[0]
	return newSample(location, lat, lng, "here", cf.SP, cf.FF, observedAt), nil
}

// NormalizeSensorReading converts an MQTT sensor payload into a TrafficSample.
// Returns ErrInvalidArgument when the reading has no location.
func NormalizeSensorReading(payload []byte, now time.Time) (models.TrafficSample, error) {
	var reading SensorReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return models.TrafficSample{}, fmt.Errorf("%w: sensor payload: %v", ErrInvalidArgument, err)
	}
	if reading.Location == "" {
		return models.TrafficSample{}, fmt.Errorf("%w: sensor reading missing location", ErrInvalidArgument)
	}

	observedAt := now
	if reading.TS != "" {
		if parsed, err := time.Parse(time.RFC3339, reading.TS); err == nil {
			observedAt = parsed.UTC()
		}
	}

	lat, lng := reading.Latitude, reading.Longitude
	if lat == 0 && lng == 0 {
		lat, lng = ResolveCoordinates(reading.Location)
	}

	return newSample(reading.Location, lat, lng, "sensor", reading.SpeedKMH, reading.FreeFlowKMH, observedAt), nil
}

func newSample(location string, lat, lng float64, source string, currentSpeed, freeFlowSpeed float64, observedAt time.Time) models.TrafficSample {
	score := CongestionScore(currentSpeed, freeFlowSpeed)
	return models.TrafficSample{
		Location:        location,
		Latitude:        lat,
		Longitude:       lng,
		Timestamp:       observedAt.UTC(),
		TrafficLevel:    models.TrafficLevelFor(score),
		CongestionScore: score,
		AverageSpeed:    currentSpeed,
		Source:          source,
	}
}
