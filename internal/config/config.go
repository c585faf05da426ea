// Package config loads ecobuild settings from config.yaml and ECOBUILD_*
// environment variables and initialises the global logger.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	RefData    RefDataConfig    `yaml:"refdata" mapstructure:"refdata"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RefDataConfig selects where the city and sensitive-zone tables come from.
type RefDataConfig struct {
	Source      string     `yaml:"source" mapstructure:"source"` // csv, xlsx, shapefile, sqlite, postgres
	DataDir     string     `yaml:"data_dir" mapstructure:"data_dir"`
	CitiesFile  string     `yaml:"cities_file" mapstructure:"cities_file"`
	ZonesFile   string     `yaml:"zones_file" mapstructure:"zones_file"`
	SQLitePath  string     `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Sync        SyncConfig `yaml:"sync" mapstructure:"sync"`
}

// SyncConfig configures `refdata sync` downloads.
type SyncConfig struct {
	CitiesURL     string      `yaml:"cities_url" mapstructure:"cities_url"`
	ZonesURL      string      `yaml:"zones_url" mapstructure:"zones_url"`
	TimeoutSecs   int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond float64     `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int         `yaml:"burst" mapstructure:"burst"`
	UserAgent     string      `yaml:"user_agent" mapstructure:"user_agent"`
	Retry         RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig mirrors resilience.RetryConfig in config-friendly units.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// EngineConfig holds every tunable constant of the assessment pipeline.
type EngineConfig struct {
	Dispersion DispersionConfig `yaml:"dispersion" mapstructure:"dispersion"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
}

// DispersionConfig configures the box dispersion model.
type DispersionConfig struct {
	// Coefficient converts emission rates into concentration increments.
	Coefficient float64 `yaml:"coefficient" mapstructure:"coefficient"`
}

// EnrichmentConfig holds fallbacks used when a city is unknown.
type EnrichmentConfig struct {
	SensitiveRadiusKM float64        `yaml:"sensitive_radius_km" mapstructure:"sensitive_radius_km"`
	FallbackLatitude  float64        `yaml:"fallback_latitude" mapstructure:"fallback_latitude"`
	FallbackLongitude float64        `yaml:"fallback_longitude" mapstructure:"fallback_longitude"`
	FallbackBaseline  BaselineConfig `yaml:"fallback_baseline" mapstructure:"fallback_baseline"`
	Noise             NoiseConfig    `yaml:"noise" mapstructure:"noise"`
}

// BaselineConfig is an ambient pollutant baseline.
type BaselineConfig struct {
	PM25 float64 `yaml:"pm25" mapstructure:"pm25"`
	NO2  float64 `yaml:"no2" mapstructure:"no2"`
	SO2  float64 `yaml:"so2" mapstructure:"so2"`
	CO   float64 `yaml:"co" mapstructure:"co"`
	O3   float64 `yaml:"o3" mapstructure:"o3"`
}

// NoiseConfig maps project types to average noise in dB.
type NoiseConfig struct {
	Industrial float64 `yaml:"industrial" mapstructure:"industrial"`
	Commercial float64 `yaml:"commercial" mapstructure:"commercial"`
	Default    float64 `yaml:"default" mapstructure:"default"`
}

// ScoringConfig holds the overall-score weights and category thresholds.
type ScoringConfig struct {
	AirWeight   float64 `yaml:"air_weight" mapstructure:"air_weight"`
	WaterWeight float64 `yaml:"water_weight" mapstructure:"water_weight"`
	LandWeight  float64 `yaml:"land_weight" mapstructure:"land_weight"`
	WasteWeight float64 `yaml:"waste_weight" mapstructure:"waste_weight"`
	NoiseWeight float64 `yaml:"noise_weight" mapstructure:"noise_weight"`

	HighThreshold           float64 `yaml:"high_threshold" mapstructure:"high_threshold"`
	ModerateThreshold       float64 `yaml:"moderate_threshold" mapstructure:"moderate_threshold"`
	RecommendationThreshold float64 `yaml:"recommendation_threshold" mapstructure:"recommendation_threshold"`
}

// ClassifierConfig selects the impact classifier backend.
type ClassifierConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // none, forest, http
	ModelPath   string        `yaml:"model_path" mapstructure:"model_path"`
	ServiceURL  string        `yaml:"service_url" mapstructure:"service_url"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// CircuitConfig configures the breaker guarding the remote classifier.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit           float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/sec, 0 disables
	RateBurst           int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxUploadMB         int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// setDefaults registers every key so env overrides work without a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("refdata.source", "csv")
	v.SetDefault("refdata.data_dir", "data")
	v.SetDefault("refdata.cities_file", "city_pollution_data.csv")
	v.SetDefault("refdata.zones_file", "sensitive_zones.csv")
	v.SetDefault("refdata.sqlite_path", "data/refdata.db")
	v.SetDefault("refdata.database_url", "")
	v.SetDefault("refdata.sync.cities_url", "")
	v.SetDefault("refdata.sync.zones_url", "")
	v.SetDefault("refdata.sync.timeout_secs", 60)
	v.SetDefault("refdata.sync.rate_per_second", 2.0)
	v.SetDefault("refdata.sync.burst", 1)
	v.SetDefault("refdata.sync.user_agent", "ecobuild-refdata/1.0")
	v.SetDefault("refdata.sync.retry.max_attempts", 3)
	v.SetDefault("refdata.sync.retry.initial_backoff_ms", 500)
	v.SetDefault("refdata.sync.retry.max_backoff_ms", 30000)
	v.SetDefault("refdata.sync.retry.multiplier", 2.0)
	v.SetDefault("refdata.sync.retry.jitter_fraction", 0.25)

	d := DefaultEngine()
	v.SetDefault("engine.dispersion.coefficient", d.Dispersion.Coefficient)
	v.SetDefault("engine.enrichment.sensitive_radius_km", d.Enrichment.SensitiveRadiusKM)
	v.SetDefault("engine.enrichment.fallback_latitude", d.Enrichment.FallbackLatitude)
	v.SetDefault("engine.enrichment.fallback_longitude", d.Enrichment.FallbackLongitude)
	v.SetDefault("engine.enrichment.fallback_baseline.pm25", d.Enrichment.FallbackBaseline.PM25)
	v.SetDefault("engine.enrichment.fallback_baseline.no2", d.Enrichment.FallbackBaseline.NO2)
	v.SetDefault("engine.enrichment.fallback_baseline.so2", d.Enrichment.FallbackBaseline.SO2)
	v.SetDefault("engine.enrichment.fallback_baseline.co", d.Enrichment.FallbackBaseline.CO)
	v.SetDefault("engine.enrichment.fallback_baseline.o3", d.Enrichment.FallbackBaseline.O3)
	v.SetDefault("engine.enrichment.noise.industrial", d.Enrichment.Noise.Industrial)
	v.SetDefault("engine.enrichment.noise.commercial", d.Enrichment.Noise.Commercial)
	v.SetDefault("engine.enrichment.noise.default", d.Enrichment.Noise.Default)
	v.SetDefault("engine.scoring.air_weight", d.Scoring.AirWeight)
	v.SetDefault("engine.scoring.water_weight", d.Scoring.WaterWeight)
	v.SetDefault("engine.scoring.land_weight", d.Scoring.LandWeight)
	v.SetDefault("engine.scoring.waste_weight", d.Scoring.WasteWeight)
	v.SetDefault("engine.scoring.noise_weight", d.Scoring.NoiseWeight)
	v.SetDefault("engine.scoring.high_threshold", d.Scoring.HighThreshold)
	v.SetDefault("engine.scoring.moderate_threshold", d.Scoring.ModerateThreshold)
	v.SetDefault("engine.scoring.recommendation_threshold", d.Scoring.RecommendationThreshold)

	v.SetDefault("classifier.provider", "none")
	v.SetDefault("classifier.model_path", "models/eia_model.json")
	v.SetDefault("classifier.service_url", "")
	v.SetDefault("classifier.timeout_secs", 10)
	v.SetDefault("classifier.retry.max_attempts", 3)
	v.SetDefault("classifier.retry.initial_backoff_ms", 200)
	v.SetDefault("classifier.retry.max_backoff_ms", 5000)
	v.SetDefault("classifier.retry.multiplier", 2.0)
	v.SetDefault("classifier.retry.jitter_fraction", 0.25)
	v.SetDefault("classifier.circuit.failure_threshold", 5)
	v.SetDefault("classifier.circuit.reset_timeout_secs", 30)

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.shutdown_timeout_secs", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// DefaultEngine returns the engine constants of the reference assessment
// model. Weights sum to 1.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		Dispersion: DispersionConfig{Coefficient: 50},
		Enrichment: EnrichmentConfig{
			SensitiveRadiusKM: 5.0,
			// Geographic centre of India.
			FallbackLatitude:  20.5937,
			FallbackLongitude: 78.9629,
			FallbackBaseline:  BaselineConfig{PM25: 100, NO2: 40, SO2: 15, CO: 1.5, O3: 30},
			Noise:             NoiseConfig{Industrial: 75, Commercial: 65, Default: 50},
		},
		Scoring: ScoringConfig{
			AirWeight:   0.30,
			WaterWeight: 0.25,
			LandWeight:  0.20,
			WasteWeight: 0.15,
			NoiseWeight: 0.10,

			HighThreshold:           60,
			ModerateThreshold:       30,
			RecommendationThreshold: 50,
		},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ECOBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "assess":
	case "predict":
		if c.Classifier.Provider == "" || c.Classifier.Provider == "none" {
			errs = append(errs, "classifier.provider must be forest or http to predict")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	case "import":
		switch c.RefData.Source {
		case "postgres":
			if c.RefData.DatabaseURL == "" {
				errs = append(errs, "refdata.database_url is required for postgres")
			}
		case "sqlite":
			if c.RefData.SQLitePath == "" {
				errs = append(errs, "refdata.sqlite_path is required for sqlite")
			}
		}
	case "sync":
		if c.RefData.Sync.CitiesURL == "" && c.RefData.Sync.ZonesURL == "" {
			errs = append(errs, "refdata.sync.cities_url or refdata.sync.zones_url is required")
		}
		if c.RefData.Sync.RatePerSecond <= 0 {
			errs = append(errs, "refdata.sync.rate_per_second must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.RefData.Source {
	case "csv", "xlsx", "shapefile", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("refdata.source %q is not one of csv, xlsx, shapefile, sqlite, postgres", c.RefData.Source))
	}

	switch c.Classifier.Provider {
	case "none", "":
	case "forest":
		if c.Classifier.ModelPath == "" {
			errs = append(errs, "classifier.model_path is required for forest")
		}
	case "http":
		if c.Classifier.ServiceURL == "" {
			errs = append(errs, "classifier.service_url is required for http")
		}
	default:
		errs = append(errs, fmt.Sprintf("classifier.provider %q is not one of none, forest, http", c.Classifier.Provider))
	}

	if err := ValidateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// WeightSum returns the sum of the five sub-score weights.
func WeightSum(s ScoringConfig) float64 {
	return s.AirWeight + s.WaterWeight + s.LandWeight + s.WasteWeight + s.NoiseWeight
}

// ValidateEngine checks that an EngineConfig is internally consistent.
func ValidateEngine(e EngineConfig) error {
	var errs []string

	if !(e.Dispersion.Coefficient > 0) {
		errs = append(errs, "dispersion.coefficient must be > 0")
	}
	if e.Enrichment.SensitiveRadiusKM < 0 {
		errs = append(errs, "enrichment.sensitive_radius_km must be >= 0")
	}
	if math.Abs(e.Enrichment.FallbackLatitude) > 90 {
		errs = append(errs, "enrichment.fallback_latitude must be within [-90, 90]")
	}
	if math.Abs(e.Enrichment.FallbackLongitude) > 180 {
		errs = append(errs, "enrichment.fallback_longitude must be within [-180, 180]")
	}

	s := e.Scoring
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"air_weight", s.AirWeight},
		{"water_weight", s.WaterWeight},
		{"land_weight", s.LandWeight},
		{"waste_weight", s.WasteWeight},
		{"noise_weight", s.NoiseWeight},
	} {
		if w.value < 0 {
			errs = append(errs, fmt.Sprintf("scoring.%s must be >= 0", w.name))
		}
	}
	if sum := WeightSum(s); math.Abs(sum-1) > 1e-6 {
		errs = append(errs, fmt.Sprintf("scoring weights should sum to 1, got %.3f", sum))
	}
	if s.ModerateThreshold < 0 || s.HighThreshold > 100 {
		errs = append(errs, "scoring thresholds must be within [0, 100]")
	}
	if s.ModerateThreshold >= s.HighThreshold {
		errs = append(errs, "scoring.moderate_threshold must be < scoring.high_threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: engine validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
