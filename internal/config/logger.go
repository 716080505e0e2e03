package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// SetupLogger configures the global logrus logger. Production gets JSON
// output for log shipping, everything else a readable text format.
func SetupLogger(cfg *Config) {
	log.SetOutput(os.Stdout)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Warnf("⚠️  Unknown LOG_LEVEL %q, falling back to info", cfg.Server.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
