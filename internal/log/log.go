// Package log is the application's observability sink. Best-effort side
// effects (remote heard mirroring, cache writes) report failures here instead
// of surfacing them to the user.
package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/config"
	"github.com/nadav-o/sipurim/internal/filesystem"
	"github.com/nadav-o/sipurim/internal/where"
)

var enabled bool

// Setup wires logrus to a dated file under the logs directory. When logging
// is disabled in config, every emission below is discarded.
func Setup() error {
	enabled = viper.GetBool(config.KeyLogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)

	if viper.GetBool(config.KeyLogsJSON) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	lvl, err := logrus.ParseLevel(viper.GetString(config.KeyLogsLevel))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return nil
}

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
