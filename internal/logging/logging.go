package logging

import (
	"fmt" // Error wrapping
	"os"  // Process exit

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Setup configures the global logrus logger: text with full timestamps in
// development, JSON in production
func Setup(level string, prod bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)
	if prod {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
