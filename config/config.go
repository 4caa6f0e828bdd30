package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            int
	CanisterURL     string
	CanisterTimeout time.Duration
	LedgerEndpoint  string
	LedgerSecret    string
	// SpenderPrincipal is the account the ledger approves before each bet.
	SpenderPrincipal string
	DataDir          string
	DatabaseURL      string // empty: JSON stores only, no fallback audit table
	RiskTables       string // optional YAML file overriding the wheel bands
	LogLevel         string
	CORSOrigins      []string
}

func Load() *Config {
	port := 8081
	// Prefer PORT (Render, Fly.io, Railway, etc.) then GATEWAY_PORT
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	} else if p := os.Getenv("GATEWAY_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	}
	canisterURL := os.Getenv("CANISTER_URL")
	if canisterURL == "" {
		canisterURL = "http://localhost:4943"
	}
	timeout := 10 * time.Second
	if t := os.Getenv("CANISTER_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			timeout = d
		} else if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}
	origins := []string{"*"}
	if o := os.Getenv("CORS_ORIGINS"); o != "" {
		origins = origins[:0]
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	return &Config{
		Port:             port,
		CanisterURL:      canisterURL,
		CanisterTimeout:  timeout,
		LedgerEndpoint:   os.Getenv("LEDGER_ENDPOINT"),
		LedgerSecret:     os.Getenv("LEDGER_SECRET"),
		SpenderPrincipal: os.Getenv("SPENDER_PRINCIPAL"),
		DataDir:          dataDir,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RiskTables:       os.Getenv("RISK_TABLES"),
		LogLevel:         logLevel,
		CORSOrigins:      origins,
	}
}
