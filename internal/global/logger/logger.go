package logger

import (
	"os"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/logging"
)

// Logger is the process-wide logger. Init replaces it once config is known.
var Logger = logging.NewZapLogger(logging.WithOutput("stderr"))

// Init builds the process logger. Worker processes write to stderr because
// stdout is their IPC channel.
func Init(level string, worker bool) *logging.ZapLogger {
	output := "stdout"
	if worker {
		output = "stderr"
	}
	Logger = logging.NewZapLogger(logging.WithLevel(level), logging.WithOutput(output))
	return Logger
}

func Info(msg string, args ...interface{}) {
	Logger.Info(msg, args...)
}

// Fatal logs and exits with status 1.
func Fatal(msg string, args ...interface{}) {
	Logger.Error(msg, args...)
	_ = Logger.Sync()
	os.Exit(1)
}
