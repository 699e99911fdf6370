// Package logging adapts fiber's leveled logger to export.Logger.
package logging

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/goliatone/go-resume/export"
)

// Logger writes through fiber's default logger with a fixed prefix.
type Logger struct {
	Prefix string
}

var _ export.Logger = Logger{}

// New returns a Logger and sets the global level.
func New(prefix string, verbose bool) Logger {
	if verbose {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelInfo)
	}
	return Logger{Prefix: prefix}
}

func (l Logger) Debugf(format string, args ...any) {
	log.Debugf(l.format(format), args...)
}

func (l Logger) Infof(format string, args ...any) {
	log.Infof(l.format(format), args...)
}

func (l Logger) Errorf(format string, args ...any) {
	log.Errorf(l.format(format), args...)
}

func (l Logger) format(format string) string {
	if l.Prefix == "" {
		return format
	}
	return "[" + l.Prefix + "] " + format
}
