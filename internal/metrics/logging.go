/*-------------------------------------------------------------------------
 *
 * logging.go
 *    Logging initialization for DataGrub
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/metrics/logging.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var globalLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

/* InitLogging configures the process-wide logger level and output format */
func InitLogging(level, format string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	if strings.EqualFold(format, "console") {
		globalLogger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		globalLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

/* Logger returns the process-wide logger */
func Logger() zerolog.Logger {
	return globalLogger
}
