package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Abhisg5/trafficDetector/config"
	"github.com/Abhisg5/trafficDetector/models"
	"github.com/Abhisg5/trafficDetector/services"
)

var (
	samplesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficdetector_collector_samples_collected_total",
		Help: "Total number of samples returned by providers.",
	})
	samplesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficdetector_collector_samples_stored_total",
		Help: "Total number of samples successfully inserted into Postgres.",
	})
	samplesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficdetector_collector_samples_failed_total",
		Help: "Total number of samples that failed to store.",
	})
	sensorMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trafficdetector_collector_sensor_messages_total",
		Help: "Total number of MQTT sensor messages received.",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trafficdetector_collector_cycle_duration_seconds",
		Help:    "Duration of a full collection cycle.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})
)

// Collection tiers: how many cycles pass between collections for each slice
// of the candidate list. With 30-minute cycles this yields hourly, 3-hourly
// and 6-hourly schedules.
type tier struct {
	name       string
	everyCycle int
}

var tiers = []tier{
	{name: "high", everyCycle: 2},
	{name: "medium", everyCycle: 6},
	{name: "low", everyCycle: 12},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	dbPool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("db pool init failed: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	log.Printf("db connected")

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("redis unavailable, live publishing disabled: %v", err)
	}
	defer cache.Close()

	go serveHTTP(cfg.Collector.MetricsAddr)

	collector := services.NewTrafficCollector(buildProviders(cfg.Providers)...)
	limiter := services.NewRateLimiter(cfg.Collector.RateLimitPerMinute)
	dispatchDelay := time.Duration(cfg.Collector.DispatchDelaySec) * time.Second

	if cfg.MQTT.URL != "" {
		startSensorIngest(ctx, cfg.MQTT, dbPool, cache)
	}

	interval := time.Duration(cfg.Collector.CycleIntervalMin) * time.Minute
	locations := services.CandidateLocations("atlanta")

	log.Printf("collector running: interval=%s locations=%d rate_limit=%d/min delay=%s",
		interval, len(locations), cfg.Collector.RateLimitPerMinute, dispatchDelay)
	for _, t := range tiers {
		log.Printf("tier %s collects every %d cycles", t.name, t.everyCycle)
	}

	// First cycle covers every tier.
	cycle := 0
	runCycle(ctx, collector, limiter, dbPool, cache, locations, cycle, dispatchDelay)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cycle++
			runCycle(ctx, collector, limiter, dbPool, cache, locations, cycle, dispatchDelay)
		case <-ctx.Done():
			log.Printf("collector shutting down")
			return
		}
	}
}

// dueLocations slices the candidate list into tiers and returns the locations
// whose tier is due this cycle. Cycle 0 collects everything.
func dueLocations(locations []string, cycle int) []string {
	if len(locations) == 0 {
		return nil
	}

	sliceLen := (len(locations) + len(tiers) - 1) / len(tiers)
	var due []string
	for i, t := range tiers {
		if cycle != 0 && cycle%t.everyCycle != 0 {
			continue
		}
		start := i * sliceLen
		if start >= len(locations) {
			break
		}
		end := start + sliceLen
		if end > len(locations) {
			end = len(locations)
		}
		due = append(due, locations[start:end]...)
	}
	return due
}

func runCycle(ctx context.Context, collector *services.TrafficCollector, limiter *services.RateLimiter, dbPool *pgxpool.Pool, cache *services.CacheService, locations []string, cycle int, dispatchDelay time.Duration) {
	start := time.Now()
	due := dueLocations(locations, cycle)
	stored := 0

	for _, location := range due {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		samples := collector.Collect(ctx, location)
		samplesCollected.Add(float64(len(samples)))

		for i := range samples {
			if err := insertSample(ctx, dbPool, &samples[i]); err != nil {
				samplesFailed.Inc()
				log.Printf("insert failed for %s: %v", location, err)
				continue
			}
			samplesStored.Inc()
			stored++
			_ = cache.Publish(ctx, services.LiveSampleChannel, samples[i])
		}

		// Courtesy pause between locations.
		select {
		case <-ctx.Done():
			return
		case <-time.After(dispatchDelay):
		}
	}

	elapsed := time.Since(start)
	cycleDuration.Observe(elapsed.Seconds())
	log.Printf("cycle %d done: locations=%d stored=%d elapsed=%s remaining_budget=%d",
		cycle, len(due), stored, elapsed, limiter.Remaining())
}

func insertSample(ctx context.Context, dbPool *pgxpool.Pool, sample *models.TrafficSample) error {
	_, err := dbPool.Exec(ctx, `
		INSERT INTO traffic_samples
			(location, latitude, longitude, timestamp, traffic_level, congestion_score, average_speed, travel_time, distance, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, sample.Location, sample.Latitude, sample.Longitude, sample.Timestamp, sample.TrafficLevel,
		sample.CongestionScore, sample.AverageSpeed, sample.TravelTime, sample.Distance, sample.Source)
	return err
}

// startSensorIngest subscribes to the sensor topic and stores readings
// through the same normalization path as provider data.
func startSensorIngest(ctx context.Context, cfg config.MQTTConfig, dbPool *pgxpool.Pool, cache *services.CacheService) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID("trafficdetector-collector-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, message mqtt.Message) {
		sensorMessages.Inc()
		sample, err := services.NormalizeSensorReading(message.Payload(), time.Now())
		if err != nil {
			samplesFailed.Inc()
			log.Printf("invalid sensor payload: %v", err)
			return
		}
		if err := insertSample(ctx, dbPool, &sample); err != nil {
			samplesFailed.Inc()
			log.Printf("sensor insert failed: %v", err)
			return
		}
		samplesStored.Inc()
		_ = cache.Publish(ctx, services.LiveSampleChannel, sample)
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.Topic, 0, nil)
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqtt subscribe error: %v", token.Error())
			return
		}
		log.Printf("sensor ingest subscribed to topic=%s", cfg.Topic)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		log.Printf("mqtt connection failed, sensor ingest disabled: %v", token.Error())
		return
	}

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
	}()
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}

// buildProviders returns the configured real providers, falling back to the
// simulated provider so development environments still produce data.
func buildProviders(cfg config.ProviderConfig) []services.Provider {
	var providers []services.Provider
	if cfg.TomTomAPIKey != "" {
		providers = append(providers, services.NewTomTomProvider(cfg.TomTomAPIKey, cfg.TomTomBaseURL))
	}
	if cfg.HereAPIKey != "" {
		providers = append(providers, services.NewHereProvider(cfg.HereAPIKey, cfg.HereBaseURL))
	}
	if len(providers) == 0 {
		log.Printf("no provider API keys configured, using simulated data")
		providers = append(providers, services.NewSimulatedProvider(time.Now().UnixNano()))
	}
	return providers
}
