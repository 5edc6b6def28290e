package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes a zerolog.Logger based on the requested format.
// format can be "text" (human-friendly console) or "json" (structured).
func Setup(format string) zerolog.Logger {
	if format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ForHospital returns a child logger tagged with the hospital id, so every
// event inside one hospital's processing carries its identity.
func ForHospital(log zerolog.Logger, hospitalID int64) zerolog.Logger {
	return log.With().Int64("hospital_id", hospitalID).Logger()
}
