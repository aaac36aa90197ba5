package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Providers ProviderConfig
	Collector CollectorConfig
	MQTT      MQTTConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type ProviderConfig struct {
	TomTomAPIKey  string
	HereAPIKey    string
	TomTomBaseURL string
	HereBaseURL   string
}

type CollectorConfig struct {
	CycleIntervalMin   int
	RateLimitPerMinute int
	DispatchDelaySec   int
	MetricsAddr        string
}

type MQTTConfig struct {
	URL   string
	Topic string
}

func LoadConfig() (*Config, error) {
	// Optional .env file; real deployments set environment variables directly.
	_ = godotenv.Load()

	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cycleInterval, err := getIntEnv("COLLECTION_INTERVAL_MIN", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTION_INTERVAL_MIN: %w", err)
	}

	rateLimit, err := getIntEnv("PROVIDER_RATE_LIMIT_PER_MIN", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_RATE_LIMIT_PER_MIN: %w", err)
	}

	dispatchDelay, err := getIntEnv("DISPATCH_DELAY_SEC", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_DELAY_SEC: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "trafficdetector"),
			Password: getEnv("DB_PASSWORD", "trafficdetector_dev_password"),
			Name:     getEnv("DB_NAME", "trafficdetector"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Providers: ProviderConfig{
			TomTomAPIKey:  getEnv("TOMTOM_API_KEY", ""),
			HereAPIKey:    getEnv("HERE_API_KEY", ""),
			TomTomBaseURL: getEnv("TOMTOM_BASE_URL", "https://api.tomtom.com"),
			HereBaseURL:   getEnv("HERE_BASE_URL", "https://traffic.ls.hereapi.com"),
		},
		Collector: CollectorConfig{
			CycleIntervalMin:   cycleInterval,
			RateLimitPerMinute: rateLimit,
			DispatchDelaySec:   dispatchDelay,
			MetricsAddr:        getEnv("METRICS_ADDR", ":8081"),
		},
		MQTT: MQTTConfig{
			URL:   getEnv("MQTT_URL", ""),
			Topic: getEnv("MQTT_TOPIC", "trafficdetector/sensors/+"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
