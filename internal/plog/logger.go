// Package plog provides the process-wide structured logger.
package plog

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	cblog "github.com/charmbracelet/log"
)

// Logger embeds the charm logger so callers can reach the full API when needed.
type Logger struct{ *cblog.Logger }

var (
	logger     *Logger
	initLogger sync.Once
)

// Get returns the shared logger, building it on first use.
func Get() *Logger {
	initLogger.Do(func() {
		styles := cblog.DefaultStyles()
		styles.Levels[cblog.FatalLevel] = lipgloss.NewStyle().SetString(" FATAL").Foreground(lipgloss.Color("1"))
		styles.Levels[cblog.ErrorLevel] = lipgloss.NewStyle().SetString(" ERROR").Foreground(lipgloss.Color("9"))
		styles.Levels[cblog.WarnLevel] = lipgloss.NewStyle().SetString("  WARN").Foreground(lipgloss.Color("3"))
		styles.Levels[cblog.InfoLevel] = lipgloss.NewStyle().SetString("  INFO").Foreground(lipgloss.Color("2"))
		styles.Levels[cblog.DebugLevel] = lipgloss.NewStyle().SetString(" DEBUG").Foreground(lipgloss.Color("4"))

		base := cblog.New(os.Stderr)
		base.SetStyles(styles)
		base.SetReportTimestamp(false)
		base.SetLevel(cblog.InfoLevel)
		base.SetPrefix("pacsea")

		logger = &Logger{base}
	})
	return logger
}

func Debug(msg interface{}, keyvals ...interface{}) { Get().Logger.Debug(msg, keyvals...) }
func Debugf(format string, v ...interface{})        { Get().Logger.Debugf(format, v...) }
func Info(msg interface{}, keyvals ...interface{})  { Get().Logger.Info(msg, keyvals...) }
func Infof(format string, v ...interface{})         { Get().Logger.Infof(format, v...) }
func Warn(msg interface{}, keyvals ...interface{})  { Get().Logger.Warn(msg, keyvals...) }
func Warnf(format string, v ...interface{})         { Get().Logger.Warnf(format, v...) }
func Error(msg interface{}, keyvals ...interface{}) { Get().Logger.Error(msg, keyvals...) }
func Errorf(format string, v ...interface{})        { Get().Logger.Errorf(format, v...) }
func Fatal(msg interface{}, keyvals ...interface{}) { Get().Logger.Fatal(msg, keyvals...) }

// SetDebug raises the log level, used by the --debug CLI flag.
func SetDebug() { Get().Logger.SetLevel(cblog.DebugLevel) }
