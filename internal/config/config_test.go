package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

func setClubEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CLUB_NUMBER", "08670123")
	t.Setenv("CLUB_ABBREVIATION", "SLTT")
	t.Setenv("DISCOVERY_CLUB_NUMBER", "")
	t.Setenv("TEAM_SYNC_CLUB_NUMBER", "")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("QSTASH_ENABLED", "false")
	t.Setenv("SMARTPING_APP_ID", "")
	t.Setenv("SMARTPING_PASSWORD", "")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setClubEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setClubEnv(t)
	t.Setenv("CLUB_NAME_VARIANTS", "Saint-Léger TT, SLTT ,")
	t.Setenv("DISCOVERY_LEAGUE_PATTERNS", "grand est")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("unexpected StoreDriver: %q", cfg.StoreDriver)
	}
	if cfg.SmartPing.RequestDelay != 150*time.Millisecond {
		t.Fatalf("unexpected SmartPing.RequestDelay: %s", cfg.SmartPing.RequestDelay)
	}
	if cfg.SmartPing.Transport != TransportNetHTTP || !cfg.SmartPing.Circuit.Enabled {
		t.Fatalf("unexpected SmartPing defaults: %+v", cfg.SmartPing)
	}
	if cfg.Club.EventType != "E" {
		t.Fatalf("unexpected Club.EventType: %q", cfg.Club.EventType)
	}
	if len(cfg.Club.NameVariants) != 2 || cfg.Club.NameVariants[1] != "SLTT" {
		t.Fatalf("unexpected Club.NameVariants: %v", cfg.Club.NameVariants)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("unexpected LogLevel: %v", cfg.LogLevel)
	}
}

func TestLoad_ClubNumberRequired(t *testing.T) {
	setClubEnv(t)
	t.Setenv("CLUB_NUMBER", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without CLUB_NUMBER")
	}
}

func TestLoad_ClubNumberOverridesMustAgree(t *testing.T) {
	setClubEnv(t)
	t.Setenv("DISCOVERY_CLUB_NUMBER", "08670123")
	if _, err := Load(); err != nil {
		t.Fatalf("matching override must be accepted: %v", err)
	}

	t.Setenv("TEAM_SYNC_CLUB_NUMBER", "08670999")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for diverging TEAM_SYNC_CLUB_NUMBER")
	}
}

func TestLoad_ClubNumberFromOverrideWhenUnset(t *testing.T) {
	setClubEnv(t)
	t.Setenv("CLUB_NUMBER", "")
	t.Setenv("DISCOVERY_CLUB_NUMBER", "08670123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Club.Number != "08670123" {
		t.Fatalf("unexpected Club.Number: %q", cfg.Club.Number)
	}
}

func TestLoad_SmartPingCredentialsMustBePaired(t *testing.T) {
	setClubEnv(t)
	t.Setenv("SMARTPING_APP_ID", "SX042")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when only SMARTPING_APP_ID is set")
	}
}

func TestLoad_SmartPingParsing(t *testing.T) {
	setClubEnv(t)
	t.Setenv("SMARTPING_APP_ID", "SX042")
	t.Setenv("SMARTPING_PASSWORD", "secret")
	t.Setenv("SMARTPING_SERIAL", "abcdefghij12345")
	t.Setenv("SMARTPING_TRANSPORT", "FastHTTP")
	t.Setenv("SMARTPING_TIMEOUT", "4s")
	t.Setenv("SMARTPING_MAX_RETRIES", "2")
	t.Setenv("SMARTPING_REQUEST_DELAY", "0s")
	t.Setenv("SMARTPING_CIRCUIT_FAILURE_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	sp := cfg.SmartPing
	if sp.Serial != "ABCDEFGHIJ12345" || sp.Transport != TransportFastHTTP {
		t.Fatalf("unexpected serial/transport: %q %q", sp.Serial, sp.Transport)
	}
	if sp.Timeout != 4*time.Second || sp.MaxRetries != 2 || sp.RequestDelay != 0 {
		t.Fatalf("unexpected timing: %+v", sp)
	}
	if sp.Circuit.FailureThreshold != 3 {
		t.Fatalf("unexpected circuit config: %+v", sp.Circuit)
	}
}

func TestLoad_InvalidTransportAndStore(t *testing.T) {
	setClubEnv(t)
	t.Setenv("SMARTPING_TRANSPORT", "grpc")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid SMARTPING_TRANSPORT")
	}

	t.Setenv("SMARTPING_TRANSPORT", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid STORE_DRIVER")
	}
}

func TestLoad_QStashRequiresTokenWhenEnabled(t *testing.T) {
	setClubEnv(t)
	t.Setenv("QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "")
	t.Setenv("QSTASH_TARGET_BASE_URL", "https://sync.example.org")
	t.Setenv("INTERNAL_JOB_TOKEN", "internal")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QSTASH_ENABLED=true without QSTASH_TOKEN")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setClubEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	got := parseUptraceDSNFromOTLPHeaders(`foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)
	if got != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected dsn: %q", got)
	}
}
