package services

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

// Provider fetches one raw traffic observation for a location.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, location string) (models.TrafficSample, error)
}

type TomTomProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTomTomProvider(apiKey, baseURL string) *TomTomProvider {
	return &TomTomProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *TomTomProvider) Name() string { return "tomtom" }

func (p *TomTomProvider) Fetch(ctx context.Context, location string) (models.TrafficSample, error) {
	lat, lng := ResolveCoordinates(location)

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("point", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("unit", "KMPH")
	endpoint := p.baseURL + "/traffic/services/4/flowSegmentData/absolute/10/json?" + params.Encode()

	payload, err := fetchJSON(ctx, p.client, endpoint)
	if err != nil {
		return models.TrafficSample{}, fmt.Errorf("tomtom: %w", err)
	}

	return NormalizeTomTom(location, lat, lng, payload, time.Now())
}

type HereProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewHereProvider(apiKey, baseURL string) *HereProvider {
	return &HereProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HereProvider) Name() string { return "here" }

func (p *HereProvider) Fetch(ctx context.Context, location string) (models.TrafficSample, error) {
	lat, lng := ResolveCoordinates(location)

	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", lat-0.01, lng-0.01, lat+0.01, lng+0.01))
	params.Set("responseattributes", "sh,fc")
	endpoint := p.baseURL + "/traffic/6.2/flow.json?" + params.Encode()

	payload, err := fetchJSON(ctx, p.client, endpoint)
	if err != nil {
		return models.TrafficSample{}, fmt.Errorf("here: %w", err)
	}

	return NormalizeHere(location, lat, lng, payload, time.Now())
}

func fetchJSON(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrProvider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return body, nil
}

// SimulatedProvider generates plausible congestion readings when no real
// provider API key is configured, so the scoring pipeline has data to work
// with in development.
type SimulatedProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewSimulatedProvider(seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

func (p *SimulatedProvider) Name() string { return "simulated" }

func (p *SimulatedProvider) Fetch(_ context.Context, location string) (models.TrafficSample, error) {
	lat, lng := ResolveCoordinates(location)
	now := p.now()

	base := baseCongestionForHour(now.Hour())
	// One instance serves concurrent collect fan-outs; *rand.Rand is not safe
	// for parallel use.
	p.mu.Lock()
	jitter := (p.rng.Float64() - 0.5) * 0.3
	p.mu.Unlock()
	congestion := clamp01(base + jitter)

	// Encode the target congestion as speeds so the sample goes through the
	// same normalization path as real provider data.
	const freeFlowSpeed = 65.0
	currentSpeed := freeFlowSpeed * (1 - congestion)

	return newSample(location, lat, lng, "simulated", currentSpeed, freeFlowSpeed, now), nil
}

func baseCongestionForHour(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return 0.7
	case hour >= 16 && hour <= 19:
		return 0.75
	case hour >= 22 || hour <= 5:
		return 0.15
	default:
		return 0.45
	}
}
