// Package logging builds the gommon loggers shared by Echo and the
// service layer.
package logging

import (
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`

// New returns a prefixed logger at the given level name.
func New(prefix, level string) *log.Logger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetLevel(ParseLevel(level))
	return l
}

// Discard returns a logger that writes nowhere.  Tests use it.
func Discard() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	return l
}

// ParseLevel maps debug, info, warn, error and off onto gommon levels.
// Unknown names fall back to INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
