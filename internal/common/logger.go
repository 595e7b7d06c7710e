package common

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultTimeFormat = "15:04:05"
	logFileName       = "vipaii.log"
	logFileMaxSize    = 100 * 1024 * 1024
	logFileBackups    = 3
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the logger set by InitLogger, or a console logger when
// InitLogger has not run (tests, early startup errors)
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	logger := globalLogger
	loggerMutex.RUnlock()
	if logger != nil {
		return logger
	}

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter(defaultTimeFormat))
	}
	return globalLogger
}

// InitLogger builds the logger from [logging] and installs it as the global logger.
// Outputs are "stdout"/"console" and "file"; with neither, console is used.
func InitLogger(config *Config) arbor.ILogger {
	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	outputs := config.Logging.Output
	toFile := slices.Contains(outputs, "file")
	toConsole := slices.Contains(outputs, "stdout") || slices.Contains(outputs, "console") || !toFile

	logger := arbor.NewLogger()

	if toFile {
		dir, err := logDir(config.Logging.Dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
			toConsole = true
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, logFileName),
				TimeFormat: timeFormat,
				MaxSize:    logFileMaxSize,
				MaxBackups: logFileBackups,
				TextOutput: true,
			})
		}
	}

	if toConsole {
		logger = logger.WithConsoleWriter(consoleWriter(timeFormat))
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()

	return logger
}

func consoleWriter(timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: timeFormat,
		TextOutput: true,
	}
}

// logDir resolves and creates the log directory
func logDir(configured string) (string, error) {
	dir := configured
	if dir == "" {
		dir = "logs"
		if execPath, err := os.Executable(); err == nil {
			dir = filepath.Join(filepath.Dir(execPath), "logs")
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory %s: %w", dir, err)
	}
	return dir, nil
}
