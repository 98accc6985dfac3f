package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatColor = "color"
	FormatText  = "text"
)

// Config selects the log level and format.
type Config struct {
	Level  string
	Format string
}

// New builds a logger writing to out (stderr when nil).
func New(cfg Config, out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(out)

	switch cfg.Format {
	case "", FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	case FormatColor:
		log.SetFormatter(NewColoredJSONFormatter())
	case FormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			log.WithFields(logrus.Fields{
				"attempted_level": cfg.Level,
				"default_level":   "INFO",
			}).Warn("Invalid log level specified, defaulting to INFO")
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)
	return log, nil
}
