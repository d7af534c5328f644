package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds watchface configuration loaded from YAML, .env and the environment.
type Config struct {
	ServerPort string

	Use24h       bool
	Location     *time.Location
	TickSchedule string

	RefreshIntervalMinutes int
	WeatherMaxAge          time.Duration

	BatterySegments int
	BatteryWidth    int
	BatteryHeight   int
	ScreenWidth     int
	ScreenHeight    int
	RingDots        int
	RingInset       int
	RingThickness   int
	DotInset        int

	InboxSize     int
	OutboxTimeout time.Duration

	HealthEnabled bool

	// CompanionEnabled is false when disabled in YAML or when no API key is set.
	CompanionEnabled  bool
	CompanionLocation string
	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration
	RetryAttempts     int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration

	CacheBackend          string // "in_memory" or "memcached"
	CacheTTL              time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerTimeout          time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	DeliveryWindow     time.Duration
	DeliveryFailurePct int

	ShutdownTimeout time.Duration
}

// ScreenBounds returns the display rectangle.
func (c *Config) ScreenBounds() image.Rectangle {
	return image.Rect(0, 0, c.ScreenWidth, c.ScreenHeight)
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Clock struct {
		Use24h       *bool  `yaml:"use_24h"`
		Timezone     string `yaml:"timezone"`
		TickSchedule string `yaml:"tick_schedule"`
	} `yaml:"clock"`

	Weather struct {
		RefreshIntervalMinutes int    `yaml:"refresh_interval_minutes"`
		MaxAge                 string `yaml:"max_age"`
	} `yaml:"weather"`

	Display struct {
		BatterySegments int  `yaml:"battery_segments"`
		BatteryWidth    int  `yaml:"battery_width"`
		BatteryHeight   int  `yaml:"battery_height"`
		ScreenWidth     int  `yaml:"screen_width"`
		ScreenHeight    int  `yaml:"screen_height"`
		RingDots        int  `yaml:"ring_dots"`
		RingInset       *int `yaml:"ring_inset"`
		RingThickness   int  `yaml:"ring_thickness"`
		DotInset        *int `yaml:"dot_inset"`
	} `yaml:"display"`

	Engine struct {
		InboxSize     int    `yaml:"inbox_size"`
		OutboxTimeout string `yaml:"outbox_timeout"`
	} `yaml:"engine"`

	Health struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"health"`

	Companion struct {
		Enabled        *bool  `yaml:"enabled"`
		Location       string `yaml:"location"`
		URL            string `yaml:"url"`
		Timeout        string `yaml:"timeout"`
		RetryAttempts  int    `yaml:"retry_attempts"`
		RetryBaseDelay string `yaml:"retry_base_delay"`
		RetryMaxDelay  string `yaml:"retry_max_delay"`
	} `yaml:"companion"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	CircuitBreaker struct {
		FailureThreshold int    `yaml:"failure_threshold"`
		SuccessThreshold int    `yaml:"success_threshold"`
		Timeout          string `yaml:"timeout"`
	} `yaml:"circuit_breaker"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Lifecycle struct {
		DeliveryWindow     string `yaml:"delivery_window"`
		DeliveryFailurePct int    `yaml:"delivery_failure_pct"`
	} `yaml:"lifecycle"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads config/{ENV_NAME}.yaml (default dev) relative to the working
// directory, after loading .env if present. The API key comes from
// WEATHER_API_KEY or config/secrets.yaml; without one the companion is
// disabled and weather must arrive over HTTP.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := fromFile(fc)

	key, err := loadAPIKey(cwd)
	if err != nil {
		return nil, err
	}
	cfg.WeatherAPIKey = key
	applyEnv(cfg)
	if cfg.WeatherAPIKey == "" {
		cfg.CompanionEnabled = false
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(fc fileConfig) *Config {
	cfg := &Config{}

	cfg.ServerPort = orString(fc.Server.Port, "8080")

	cfg.Use24h = orBool(fc.Clock.Use24h, true)
	cfg.Location = loadLocation(fc.Clock.Timezone)
	cfg.TickSchedule = orString(strings.TrimSpace(fc.Clock.TickSchedule), "* * * * *")

	cfg.RefreshIntervalMinutes = orInt(fc.Weather.RefreshIntervalMinutes, 30)
	cfg.WeatherMaxAge = parseDurationOrZero(fc.Weather.MaxAge, 0)

	cfg.BatterySegments = orInt(fc.Display.BatterySegments, 5)
	cfg.BatteryWidth = orInt(fc.Display.BatteryWidth, 6)
	cfg.BatteryHeight = orInt(fc.Display.BatteryHeight, 12)
	cfg.ScreenWidth = orInt(fc.Display.ScreenWidth, 144)
	cfg.ScreenHeight = orInt(fc.Display.ScreenHeight, 168)
	cfg.RingDots = orInt(fc.Display.RingDots, 12)
	cfg.RingInset = orIntPtr(fc.Display.RingInset, 2)
	cfg.RingThickness = orInt(fc.Display.RingThickness, 12)
	cfg.DotInset = orIntPtr(fc.Display.DotInset, 6)

	cfg.InboxSize = orInt(fc.Engine.InboxSize, 128)
	cfg.OutboxTimeout = parseDurationOrZero(fc.Engine.OutboxTimeout, 0)

	cfg.HealthEnabled = orBool(fc.Health.Enabled, true)

	cfg.CompanionEnabled = orBool(fc.Companion.Enabled, true)
	cfg.CompanionLocation = strings.TrimSpace(fc.Companion.Location)
	cfg.WeatherAPIURL = orString(fc.Companion.URL, "https://api.openweathermap.org/data/2.5/weather")
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.Companion.Timeout, 5*time.Second)
	cfg.RetryAttempts = orInt(fc.Companion.RetryAttempts, 1)
	cfg.RetryBaseDelay = parseDuration(fc.Companion.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Companion.RetryMaxDelay, 2*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	cfg.CacheTTL = parseDurationOrZero(fc.Cache.TTL, 10*time.Minute)
	cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = orInt(fc.Cache.Memcached.MaxIdleConns, 2)

	cfg.BreakerFailureThreshold = orInt(fc.CircuitBreaker.FailureThreshold, 5)
	cfg.BreakerSuccessThreshold = orInt(fc.CircuitBreaker.SuccessThreshold, 2)
	cfg.BreakerTimeout = parseDuration(fc.CircuitBreaker.Timeout, 5*time.Minute)

	cfg.RateLimitRPS = orInt(fc.Reliability.RateLimitRPS, 20)
	cfg.RateLimitBurst = orInt(fc.Reliability.RateLimitBurst, 50)

	cfg.DeliveryWindow = parseDuration(fc.Lifecycle.DeliveryWindow, 2*time.Hour)
	cfg.DeliveryFailurePct = orInt(fc.Lifecycle.DeliveryFailurePct, 50)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 10*time.Second)
	return cfg
}

func loadAPIKey(cwd string) (string, error) {
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		return key, nil
	}
	data, err := os.ReadFile(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.WeatherAPIKey), nil
}

// applyEnv overrides file values with environment variables where set.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.ServerPort = v
	}
	if v := strings.TrimSpace(os.Getenv("WEATHER_LOCATION")); v != "" {
		cfg.CompanionLocation = v
	}
	if v := strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND"))); v != "" {
		cfg.CacheBackend = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")); v != "" {
		cfg.MemcachedAddrs = v
	}
	if v := strings.TrimSpace(os.Getenv("WATCHFACE_TIMEZONE")); v != "" {
		cfg.Location = loadLocation(v)
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("WATCHFACE_24H"))); err == nil {
		cfg.Use24h = v
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
}

// loadLocation resolves an IANA zone name, falling back to time.Local.
func loadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// parseDuration parses s and returns defaultVal if parsing fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses s, returning defaultVal on empty string or parse
// error. Zero and negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orIntPtr(v *int, def int) int {
	if v == nil || *v < 0 {
		return def
	}
	return *v
}

func orBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// validate checks cross-field constraints after defaults are applied.
func validate(cfg *Config) error {
	if 60%cfg.RefreshIntervalMinutes != 0 {
		return fmt.Errorf("weather.refresh_interval_minutes must divide 60, got %d", cfg.RefreshIntervalMinutes)
	}
	if cfg.WeatherMaxAge < 0 {
		return fmt.Errorf("weather.max_age must not be negative")
	}
	sched, err := cron.ParseStandard(cfg.TickSchedule)
	if err != nil {
		return fmt.Errorf("clock.tick_schedule %q: %w", cfg.TickSchedule, err)
	}
	if !firesEveryMinute(sched) {
		return fmt.Errorf("clock.tick_schedule %q must fire on every minute", cfg.TickSchedule)
	}
	if cfg.BatteryHeight < cfg.BatterySegments+5 {
		return fmt.Errorf("display.battery_height must be at least battery_segments+5, got %d", cfg.BatteryHeight)
	}
	if cfg.BatteryWidth < 5 {
		return fmt.Errorf("display.battery_width must be at least 5, got %d", cfg.BatteryWidth)
	}
	if cfg.CompanionEnabled {
		if cfg.CompanionLocation == "" {
			return fmt.Errorf("companion.location required when companion is enabled")
		}
		if cfg.WeatherAPITimeout <= 0 {
			return fmt.Errorf("companion.timeout must be positive")
		}
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.DeliveryFailurePct > 100 {
		return fmt.Errorf("lifecycle.delivery_failure_pct must be at most 100, got %d", cfg.DeliveryFailurePct)
	}
	return nil
}

// firesEveryMinute reports whether sched matches every wall-clock minute.
// Descriptors such as @every are rejected since they are not minute aligned.
func firesEveryMinute(sched cron.Schedule) bool {
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return false
	}
	return spec.Second&1 == 1 &&
		allBits(spec.Minute, 0, 59) &&
		allBits(spec.Hour, 0, 23) &&
		allBits(spec.Dom, 1, 31) &&
		allBits(spec.Month, 1, 12) &&
		allBits(spec.Dow, 0, 6)
}

func allBits(field uint64, lo, hi uint) bool {
	mask := (uint64(1)<<(hi+1) - 1) &^ (uint64(1)<<lo - 1)
	return field&mask == mask
}
