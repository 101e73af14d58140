// Package conf loads annotator settings from config.yaml, environment
// variables and built-in defaults.
package conf

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// Supported database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// EnvPrefix is the prefix of environment overrides, e.g. ANNOTATOR_DATABASE_TYPE.
const EnvPrefix = "ANNOTATOR"

// DatabaseSettings selects and configures the datastore
type DatabaseSettings struct {
	Type          string        // sqlite or mysql
	Path          string        // sqlite database file
	Host          string        // mysql host
	Port          int           // mysql port
	Username      string        // mysql user
	Password      string        // mysql password
	Database      string        // mysql schema name
	MaxOpenConns  int           // connection pool size
	SlowThreshold time.Duration // statements slower than this are logged at WARN
}

// WebServerSettings configures the HTTP API
type WebServerSettings struct {
	Enabled         bool
	Host            string
	Port            int
	Debug           bool
	AllowedOrigins  []string      // CORS origins; empty allows none
	BodyLimit       string        // echo body limit, e.g. "16M"
	ShutdownTimeout time.Duration // graceful shutdown deadline
}

// AnnotationSettings tunes the result engine
type AnnotationSettings struct {
	MaxNameProbes   int           // candidate names tried when forking a shared set
	MaxLineageDepth int           // depth of the updated_to view returned by reads
	DatasetCacheTTL time.Duration // lifetime of cached dataset lookups
}

// TelemetrySettings configures Sentry error reporting
type TelemetrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings contains all annotator configuration
type Settings struct {
	Debug      bool
	Database   DatabaseSettings
	WebServer  WebServerSettings
	Annotation AnnotationSettings
	Logging    logger.LoggingConfig
	Telemetry  TelemetrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configuration into a Settings instance. An explicit configFile
// wins over the default search paths. A missing config file is not an error;
// defaults apply.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings, err := loadFrom(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}
	settingsInstance = settings
	return settingsInstance, nil
}

// loadFrom runs the whole load against v so tests can use a private instance
func loadFrom(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// initViper registers defaults and env overrides, then reads the config file
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Setting returns the loaded settings, loading defaults on first use.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	settings, err := Load("")
	if err != nil {
		logger.Global().Module("conf").Error("failed to load settings, using defaults", logger.Error(err))
		return Defaults()
	}
	return settings
}

// Defaults returns Settings populated only from built-in defaults
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	_ = v.Unmarshal(settings)
	return settings
}

// MySQLDSN builds a go-sql-driver DSN from the database settings
func (d *DatabaseSettings) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// Address returns host:port for the HTTP listener
func (w *WebServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}
