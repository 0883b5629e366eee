// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package log provides the package-level logging interface used across the
// project. The default logger is a zap production logger; callers may swap
// in their own with SetLogger.
package log

import (
	"go.uber.org/zap"
)

// Logger is the minimal leveled, printf-style logging interface the project
// logs through.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Default is the logger used by the package-level functions.
var Default Logger = newZapLogger()

func newZapLogger() Logger {
	l, err := zap.NewProduction(zap.AddCallerSkip(2))
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

// NewDevelopment returns a human-friendly logger for local runs.
func NewDevelopment() Logger {
	l, err := zap.NewDevelopment(zap.AddCallerSkip(2))
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

// SetLogger replaces the logger behind the package-level functions.
// Passing nil is a no-op.
func SetLogger(l Logger) {
	if l != nil {
		Default = l
	}
}

// Debug logs a debug message with the default logger.
func Debug(args ...interface{}) {
	Default.Debug(args...)
}

// Info logs an info message with the default logger.
func Info(args ...interface{}) {
	Default.Info(args...)
}

// Warn logs a warning message with the default logger.
func Warn(args ...interface{}) {
	Default.Warn(args...)
}

// Error logs an error message with the default logger.
func Error(args ...interface{}) {
	Default.Error(args...)
}

// Fatal logs a fatal message with the default logger and exits.
func Fatal(args ...interface{}) {
	Default.Fatal(args...)
}

// Debugf logs a debug message with the default logger.
func Debugf(format string, args ...interface{}) {
	Default.Debugf(format, args...)
}

// Infof logs an info message with the default logger.
func Infof(format string, args ...interface{}) {
	Default.Infof(format, args...)
}

// Warnf logs a warning message with the default logger.
func Warnf(format string, args ...interface{}) {
	Default.Warnf(format, args...)
}

// Errorf logs an error message with the default logger.
func Errorf(format string, args ...interface{}) {
	Default.Errorf(format, args...)
}

// Fatalf logs a fatal message with the default logger and exits.
func Fatalf(format string, args ...interface{}) {
	Default.Fatalf(format, args...)
}
