// Package cmdutil holds helpers shared by the rfs binaries.
package cmdutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// LogLevel implements flag.Value and selects which log levels are kept. The
// zero value keeps info and above.
type LogLevel struct {
	name   string
	option level.Option
}

var logLevels = map[string]level.Option{
	"none":  level.AllowNone(),
	"error": level.AllowError(),
	"warn":  level.AllowWarn(),
	"info":  level.AllowInfo(),
	"debug": level.AllowDebug(),
}

// String implements flag.Value.
func (l LogLevel) String() string {
	if l.name == "" {
		return "info"
	}
	return l.name
}

// Set implements flag.Value.
func (l *LogLevel) Set(in string) error {
	name := strings.ToLower(in)
	opt, ok := logLevels[name]
	if !ok {
		return fmt.Errorf("unknown log level %q, valid options none, error, warn, info, debug", in)
	}
	l.name, l.option = name, opt
	return nil
}

// FilterOption returns l as an option for level.NewFilter.
func (l LogLevel) FilterOption() level.Option {
	if l.option == nil {
		return level.AllowInfo()
	}
	return l.option
}

// NewLogger creates the logfmt logger used by the rfs binaries, filtered to
// ll and annotated with a timestamp and caller.
func NewLogger(w io.Writer, ll LogLevel) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(w))
	l = level.NewFilter(l, ll.FilterOption())
	return log.With(l, "ts", log.DefaultTimestamp, "caller", log.DefaultCaller)
}
