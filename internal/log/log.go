// Package log provides the package-level zap logger shared by the toolkit.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

// Init initializes the package-level logger. With debug enabled the logger
// uses the human-readable development encoder and Debug level.
func Init(debug bool) error {
	var logger *zap.Logger
	var err error

	if debug {
		logger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		logger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	sugar = logger.Sugar()
	return nil
}

// Sugared returns the sugared logger, initializing a production logger if
// Init was never called. Library entry points fall back to this when the
// caller passes a nil logger.
func Sugared() *zap.SugaredLogger {
	if sugar == nil {
		logger, _ := zap.NewProduction(zap.AddCallerSkip(1))
		sugar = logger.Sugar()
	}
	return sugar
}

// Sync flushes any buffered log entries.
func Sync() {
	if sugar != nil {
		sugar.Sync()
	}
}

func Debugf(template string, args ...interface{}) {
	Sugared().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	Sugared().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	Sugared().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	Sugared().Errorf(template, args...)
}
