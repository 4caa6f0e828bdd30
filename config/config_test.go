package config

import (
	"reflect"
	"testing"
	"time"
)

var keys = []string{
	"PORT", "GATEWAY_PORT", "CANISTER_URL", "CANISTER_TIMEOUT", "LEDGER_ENDPOINT", "LEDGER_SECRET",
	"SPENDER_PRINCIPAL", "DATA_DIR", "DATABASE_URL", "RISK_TABLES", "LOG_LEVEL", "CORS_ORIGINS",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load()
	if c.Port != 8081 || c.CanisterURL != "http://localhost:4943" || c.CanisterTimeout != 10*time.Second {
		t.Errorf("defaults %+v", c)
	}
	if c.DataDir != "data" || c.LogLevel != "info" || !reflect.DeepEqual(c.CORSOrigins, []string{"*"}) {
		t.Errorf("defaults %+v", c)
	}
	if c.DatabaseURL != "" || c.LedgerEndpoint != "" {
		t.Errorf("unexpected optional values %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_PORT", "9000")
	t.Setenv("CANISTER_TIMEOUT", "2500ms")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DATABASE_URL", "sqlite:gateway.db")
	c := Load()
	if c.Port != 9000 || c.CanisterTimeout != 2500*time.Millisecond || c.LogLevel != "debug" {
		t.Errorf("overrides %+v", c)
	}
	if !reflect.DeepEqual(c.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("origins %v", c.CORSOrigins)
	}
	if c.DatabaseURL != "sqlite:gateway.db" {
		t.Errorf("database url %q", c.DatabaseURL)
	}
}

func TestLoadPortPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("GATEWAY_PORT", "9000")
	t.Setenv("CANISTER_TIMEOUT", "3")
	c := Load()
	if c.Port != 7000 {
		t.Errorf("port %d want PORT to win", c.Port)
	}
	if c.CanisterTimeout != 3*time.Second {
		t.Errorf("bare seconds timeout %v", c.CanisterTimeout)
	}
}
