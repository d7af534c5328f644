package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalEnvYAML = `
companion:
  location: "oslo"
`

// inDir switches to a temp project dir with config/dev.yaml and clears the
// environment variables Load reads.
func inDir(t *testing.T, yaml string) string {
	t.Helper()
	for _, k := range []string{"WEATHER_API_KEY", "ENV_NAME", "PORT", "WEATHER_LOCATION", "CACHE_BACKEND", "MEMCACHED_ADDRS", "WATCHFACE_TIMEZONE", "WATCHFACE_24H"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	dir := t.TempDir()
	writeEnvFile(t, dir, yaml)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	return dir
}

func TestLoad_NoAPIKeyDisablesCompanion(t *testing.T) {
	inDir(t, minimalEnvYAML)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CompanionEnabled {
		t.Error("CompanionEnabled = true without API key, want false")
	}
}

func TestLoad_Defaults(t *testing.T) {
	inDir(t, "")
	t.Setenv("WEATHER_API_KEY", "key-from-env-12345")
	t.Setenv("WEATHER_LOCATION", "oslo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ServerPort", cfg.ServerPort, "8080"},
		{"Use24h", cfg.Use24h, true},
		{"TickSchedule", cfg.TickSchedule, "* * * * *"},
		{"RefreshIntervalMinutes", cfg.RefreshIntervalMinutes, 30},
		{"WeatherMaxAge", cfg.WeatherMaxAge, time.Duration(0)},
		{"BatterySegments", cfg.BatterySegments, 5},
		{"BatteryWidth", cfg.BatteryWidth, 6},
		{"BatteryHeight", cfg.BatteryHeight, 12},
		{"RingDots", cfg.RingDots, 12},
		{"RingInset", cfg.RingInset, 2},
		{"RingThickness", cfg.RingThickness, 12},
		{"DotInset", cfg.DotInset, 6},
		{"InboxSize", cfg.InboxSize, 128},
		{"RetryAttempts", cfg.RetryAttempts, 1},
		{"CacheBackend", cfg.CacheBackend, "in_memory"},
		{"MemcachedAddrs", cfg.MemcachedAddrs, "localhost:11211"},
		{"CompanionEnabled", cfg.CompanionEnabled, true},
		{"HealthEnabled", cfg.HealthEnabled, true},
		{"DeliveryFailurePct", cfg.DeliveryFailurePct, 50},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_SucceedsWithSecretsFile(t *testing.T) {
	dir := inDir(t, minimalEnvYAML)
	writeSecretsFile(t, dir, "weather_api_key: key-from-secrets-file\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIKey != "key-from-secrets-file" {
		t.Errorf("WeatherAPIKey = %q, want key from secrets file", cfg.WeatherAPIKey)
	}
	if !cfg.CompanionEnabled {
		t.Error("CompanionEnabled = false, want true")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inDir(t, minimalEnvYAML)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WEATHER_API_KEY=key-from-dotenv-1\nPORT=9090\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("WEATHER_API_KEY")
		os.Unsetenv("PORT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIKey != "key-from-dotenv-1" {
		t.Errorf("WeatherAPIKey = %q, want key from .env", cfg.WeatherAPIKey)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	inDir(t, minimalEnvYAML)
	t.Setenv("CACHE_BACKEND", "MEMCACHED")
	t.Setenv("MEMCACHED_ADDRS", "cache:11211")
	t.Setenv("WATCHFACE_24H", "false")
	t.Setenv("WATCHFACE_TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("CacheBackend = %q, want memcached", cfg.CacheBackend)
	}
	if cfg.MemcachedAddrs != "cache:11211" {
		t.Errorf("MemcachedAddrs = %q, want cache:11211", cfg.MemcachedAddrs)
	}
	if cfg.Use24h {
		t.Error("Use24h = true, want false from env")
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
}

func TestLoad_EnvFileNotFound(t *testing.T) {
	inDir(t, minimalEnvYAML)
	t.Setenv("ENV_NAME", "nonexistent")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want config file not found", err)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	inDir(t, minimalEnvYAML+`
engine:
  outbox_timeout: "soon"
shutdown:
  timeout: "-5s"
cache:
  ttl: "nope"
`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutboxTimeout != 0 {
		t.Errorf("OutboxTimeout = %v, want 0", cfg.OutboxTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
}

func TestLoad_ZeroInsetKept(t *testing.T) {
	inDir(t, minimalEnvYAML+`
display:
  ring_inset: 0
`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RingInset != 0 {
		t.Errorf("RingInset = %d, want 0", cfg.RingInset)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		withKey bool
		wantErr string
	}{
		{"interval not dividing 60", "weather:\n  refresh_interval_minutes: 7\n", false, "must divide 60"},
		{"bad cron", "clock:\n  tick_schedule: \"every minute\"\n", false, "tick_schedule"},
		{"cron every other minute", "clock:\n  tick_schedule: \"*/2 * * * *\"\n", false, "must fire on every minute"},
		{"cron business hours", "clock:\n  tick_schedule: \"* 9-17 * * *\"\n", false, "must fire on every minute"},
		{"cron weekdays", "clock:\n  tick_schedule: \"* * * * 1-5\"\n", false, "must fire on every minute"},
		{"cron hourly descriptor", "clock:\n  tick_schedule: \"@hourly\"\n", false, "must fire on every minute"},
		{"cron constant delay", "clock:\n  tick_schedule: \"@every 1m\"\n", false, "must fire on every minute"},
		{"bad cache backend", "cache:\n  backend: redis\n", false, "cache.backend"},
		{"battery too short", "display:\n  battery_height: 8\n", false, "battery_height"},
		{"negative max age", "weather:\n  max_age: -1m\n", false, "max_age"},
		{"companion without location", "companion:\n  enabled: true\n", true, "companion.location"},
		{"companion zero timeout", minimalEnvYAML + "  timeout: 0s\n", true, "companion.timeout"},
		{"failure pct over 100", "lifecycle:\n  delivery_failure_pct: 150\n", false, "delivery_failure_pct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDir(t, tt.yaml)
			if tt.withKey {
				t.Setenv("WEATHER_API_KEY", "key-from-env-12345")
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_TickScheduleEveryMinuteForms(t *testing.T) {
	for _, spec := range []string{"* * * * *", "0-59 * * * *", "*/1 * * * *"} {
		t.Run(spec, func(t *testing.T) {
			inDir(t, "clock:\n  tick_schedule: \""+spec+"\"\n")
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.TickSchedule != spec {
				t.Errorf("TickSchedule = %q, want %q", cfg.TickSchedule, spec)
			}
		})
	}
}

func TestLoad_InvalidSecretsYAML(t *testing.T) {
	dir := inDir(t, minimalEnvYAML)
	writeSecretsFile(t, dir, "weather_api_key: [unclosed\n")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse secrets file") {
		t.Errorf("Load() error = %v, want parse secrets file", err)
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	inDir(t, "server: [unclosed\n")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse config file", err)
	}
}

// TestLoad_RepoDevConfig verifies the shipped config/dev.yaml loads.
func TestLoad_RepoDevConfig(t *testing.T) {
	root := findProjectRoot(t)
	data, err := os.ReadFile(filepath.Join(root, "config", "dev.yaml"))
	if err != nil {
		t.Fatalf("read dev.yaml: %v", err)
	}
	inDir(t, string(data))
	t.Setenv("WEATHER_API_KEY", "key-from-env-12345")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CompanionLocation != "seattle" {
		t.Errorf("CompanionLocation = %q, want seattle", cfg.CompanionLocation)
	}
	if cfg.OutboxTimeout != 30*time.Second {
		t.Errorf("OutboxTimeout = %v, want 30s", cfg.OutboxTimeout)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"5m", time.Second, 5 * time.Minute},
		{"bogus", time.Second, time.Second},
		{"0s", time.Second, time.Second},
		{"-1s", time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func writeSecretsFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config", "secrets.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write secrets file: %v", err)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
