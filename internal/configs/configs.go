/*
Package configs is responsible for loading and parsing the application's
configuration settings.

All server parameters come from environment variables: the running environment,
port, CORS allowed origins, and the per-IP WebSocket connect rate limits.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig contains all configuration parameters required to run the server.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// WebSocket connect rate limiting (per client IP)
	ConnectRate  float64
	ConnectBurst int
}

// LoadConfig reads and parses the application configuration from environment
// variables, applying defaults and validating values.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// ConnectRate
	rateStr := os.Getenv("WS_CONNECT_RATE")
	if rateStr == "" {
		rateStr = "0.2"
	}
	connectRate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || connectRate <= 0 {
		return nil, fmt.Errorf("invalid WS_CONNECT_RATE environment variable: %q", rateStr)
	}
	cfg.ConnectRate = connectRate

	// ConnectBurst
	burstStr := os.Getenv("WS_CONNECT_BURST")
	if burstStr == "" {
		burstStr = "5"
	}
	connectBurst, err := strconv.Atoi(burstStr)
	if err != nil || connectBurst < 1 {
		return nil, fmt.Errorf("invalid WS_CONNECT_BURST environment variable: %q", burstStr)
	}
	cfg.ConnectBurst = connectBurst

	return cfg, nil
}
