package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// configureLogging applies the level and formatter named in the config
func configureLogging(level, format string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	log.SetLevel(parsed)
	log.SetOutput(os.Stdout)

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", format)
	}

	return nil
}
