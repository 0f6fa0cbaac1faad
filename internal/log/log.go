// Package log provides the package-level zap logger used across the tool.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// Init configures the package logger. Debug enables development output
// (human-readable, debug level); otherwise production JSON output is used.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	log = zapLogger.Sugar()
	return nil
}

func logger() *zap.SugaredLogger {
	if log == nil {
		base, _ := zap.NewProduction(zap.AddCallerSkip(2))
		log = base.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() {
	logger().Sync()
}

func Debugf(template string, args ...interface{}) {
	logger().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	logger().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	logger().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	logger().Errorf(template, args...)
}
