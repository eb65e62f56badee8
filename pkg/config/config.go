package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Host      string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Backup    BackupConfig
	Exports   ExportsConfig
	Scheduler SchedulerConfig
	Dashboard DashboardConfig
	Metrics   MetricsConfig
	Jobs      JobsConfig
}

// DatabaseConfig points at the single-file store.
type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// BackupConfig controls where store snapshots are written.
type BackupConfig struct {
	Dir string
}

// ExportsConfig controls rendered report output.
type ExportsConfig struct {
	Dir         string
	PDFFontPath string
}

// SchedulerConfig holds the maintenance projection defaults.
type SchedulerConfig struct {
	LookAheadDays        int
	DefaultIntervalDays  int
	CategoryIntervalDays map[string]int
}

// DashboardConfig governs dashboard caching.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

// JobsConfig drives the housekeeping queue. Zero intervals disable a job.
type JobsConfig struct {
	PruneInterval    time.Duration
	ExportsRetention time.Duration
	BackupInterval   time.Duration
	ShutdownTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Host = v.GetString("HTTP_HOST")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Path:        v.GetString("DB_PATH"),
		BusyTimeout: parseDuration(v.GetString("DB_BUSY_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
		File:   v.GetString("LOG_FILE"),
	}

	cfg.Backup = BackupConfig{Dir: v.GetString("BACKUP_DIR")}

	cfg.Exports = ExportsConfig{
		Dir:         v.GetString("EXPORTS_DIR"),
		PDFFontPath: v.GetString("PDF_FONT_PATH"),
	}

	cfg.Scheduler = SchedulerConfig{
		LookAheadDays:        positiveOr(v.GetInt("SCHEDULER_LOOKAHEAD_DAYS"), 30),
		DefaultIntervalDays:  positiveOr(v.GetInt("SCHEDULER_DEFAULT_INTERVAL_DAYS"), 90),
		CategoryIntervalDays: ParseIntervals(v.GetString("SCHEDULER_CATEGORY_INTERVALS")),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("ENABLE_CACHE"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Jobs = JobsConfig{
		PruneInterval:    parseDuration(v.GetString("EXPORTS_PRUNE_INTERVAL"), time.Hour),
		ExportsRetention: parseDuration(v.GetString("EXPORTS_RETENTION"), 24*time.Hour),
		BackupInterval:   parseDuration(v.GetString("BACKUP_INTERVAL"), 0),
		ShutdownTimeout:  parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("HTTP_HOST", "127.0.0.1")
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_PATH", "equipment.db")
	v.SetDefault("DB_BUSY_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_FILE", "equipment_tracker.log")

	v.SetDefault("BACKUP_DIR", "backups")
	v.SetDefault("EXPORTS_DIR", "exports")
	v.SetDefault("PDF_FONT_PATH", "")

	v.SetDefault("SCHEDULER_LOOKAHEAD_DAYS", 30)
	v.SetDefault("SCHEDULER_DEFAULT_INTERVAL_DAYS", 90)
	v.SetDefault("SCHEDULER_CATEGORY_INTERVALS", "Производственное оборудование=30")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("EXPORTS_PRUNE_INTERVAL", "1h")
	v.SetDefault("EXPORTS_RETENTION", "24h")
	v.SetDefault("BACKUP_INTERVAL", "0")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

// ParseIntervals reads "category=days" pairs separated by commas. Malformed
// pairs and non-positive values are dropped.
func ParseIntervals(raw string) map[string]int {
	result := make(map[string]int)
	for _, pair := range splitAndTrim(raw) {
		name, days, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		n, err := strconv.Atoi(strings.TrimSpace(days))
		if name == "" || err != nil || n <= 0 {
			continue
		}
		result[name] = n
	}
	return result
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
