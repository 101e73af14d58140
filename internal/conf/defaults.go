package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for every configuration key
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.path", "annotator.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "annotator")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "annotator")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("database.slowthreshold", 200*time.Millisecond)

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.host", "")
	v.SetDefault("webserver.port", 8080)
	v.SetDefault("webserver.debug", false)
	v.SetDefault("webserver.allowedorigins", []string{})
	v.SetDefault("webserver.bodylimit", "16M")
	v.SetDefault("webserver.shutdowntimeout", 10*time.Second)

	v.SetDefault("annotation.maxnameprobes", 100)
	v.SetDefault("annotation.maxlineagedepth", 32)
	v.SetDefault("annotation.datasetcachettl", 5*time.Minute)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/annotator.log")
	v.SetDefault("logging.file_output.level", "info")
	v.SetDefault("logging.file_output.max_size", 100)
	v.SetDefault("logging.file_output.max_age", 30)
	v.SetDefault("logging.file_output.max_rotated_files", 10)
	v.SetDefault("logging.file_output.compress", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
	v.SetDefault("telemetry.environment", "production")
}
