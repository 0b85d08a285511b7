package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	maxMessageSize = 60
	maxFileSize    = 22
	maxLineSize    = 4
)

var (
	timestampColor = color.New(color.FgHiCyan, color.Italic)
	callerColor    = color.New(color.FgHiMagenta)
	messageColor   = color.New(color.FgWhite)
	fieldKeyColor  = color.New(color.FgHiYellow)
	fieldValColor  = color.New(color.FgCyan)
)

var logLevels = map[string]logLevel{
	zerolog.LevelTraceValue: {Text: "TRAC", Color: color.New(color.FgHiBlack, color.Bold)},
	zerolog.LevelDebugValue: {Text: "DEBG", Color: color.New(color.FgHiBlue, color.Bold)},
	zerolog.LevelInfoValue:  {Text: "INFO", Color: color.New(color.FgHiGreen, color.Bold)},
	zerolog.LevelWarnValue:  {Text: "WARN", Color: color.New(color.FgHiYellow, color.Bold)},
	zerolog.LevelErrorValue: {Text: "ERRO", Color: color.New(color.FgHiRed, color.Bold)},
	zerolog.LevelFatalValue: {Text: "FATL", Color: color.New(color.FgHiRed, color.Bold)},
	zerolog.LevelPanicValue: {Text: "PANC", Color: color.New(color.FgWhite, color.BgRed, color.Bold)},
}

type logLevel struct {
	Text  string
	Color *color.Color
}

type Config struct {
	Level          string
	DateTimeLayout string
	Colored        bool
	JSONFormat     bool
}

type consoleFormatter struct {
	config *Config
}

type ZLogX struct {
	*zerolog.Logger
	config *Config
}

// New creates a new logger instance
func New(config *Config) (*ZLogX, error) {
	if config == nil {
		config = &Config{
			Level:          "info",
			DateTimeLayout: time.RFC3339,
			Colored:        true,
		}
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logMode, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("недійсний рівень логування: %w", err)
	}
	zerolog.SetGlobalLevel(logMode)

	var logger zerolog.Logger
	if config.JSONFormat {
		logger = log.Output(os.Stdout)
	} else {
		logger = createConsoleLogger(config)
	}

	logger = logger.With().CallerWithSkipFrameCount(3).Logger()

	return &ZLogX{
		Logger: &logger,
		config: config,
	}, nil
}

// createConsoleLogger creates a console formatted logger output
func createConsoleLogger(config *Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    !config.Colored,
		TimeFormat: config.DateTimeLayout,
		PartsOrder: []string{"time", "level", "caller", "message"},
	}

	if config.Colored {
		formatter := &consoleFormatter{config: config}

		output.FormatMessage = formatter.formatMessage
		output.FormatCaller = formatter.formatCaller
		output.FormatLevel = formatter.formatLevel
		output.FormatTimestamp = formatter.formatTimestamp
		output.FormatFieldName = formatter.formatFieldName
		output.FormatFieldValue = formatter.formatFieldValue
	}

	return log.Output(output)
}

// formatLevel formats the log level with color
func (f *consoleFormatter) formatLevel(i any) string {
	levelStr, ok := i.(string)
	if !ok {
		return color.New(color.FgHiWhite).Sprint(" UNKN ")
	}

	level, exists := logLevels[levelStr]
	if !exists {
		return color.New(color.FgHiWhite).Sprint(" UNKN ")
	}

	return level.Color.Sprintf(" %s ", level.Text)
}

// formatMessage formats log messages with multiline support
func (f *consoleFormatter) formatMessage(i any) string {
	msg, ok := i.(string)
	if !ok || len(msg) == 0 {
		return messageColor.Sprint("│ (empty message)")
	}

	if strings.Contains(msg, "\n") {
		lines := strings.Split(msg, "\n")
		formatted := make([]string, len(lines))
		for n, line := range lines {
			formatted[n] = messageColor.Sprintf("│ %s", line)
		}
		return strings.Join(formatted, "\n")
	}

	if len(msg) > maxMessageSize {
		msg = msg[:maxMessageSize]
	} else {
		msg = fmt.Sprintf("%-*s", maxMessageSize, msg)
	}

	return messageColor.Sprintf("│ %s", msg)
}

// formatCaller formats caller information with file and line number
func (f *consoleFormatter) formatCaller(i any) string {
	fname, ok := i.(string)
	if !ok || len(fname) == 0 {
		return ""
	}

	caller := filepath.Base(fname)
	parts := strings.Split(caller, ":")
	if len(parts) != 2 {
		return callerColor.Sprintf("┤ %s ├", caller)
	}

	file := strings.TrimSuffix(parts[0], ".go")
	if len(file) > maxFileSize {
		file = file[:maxFileSize]
	} else {
		file = fmt.Sprintf("%-*s", maxFileSize, file)
	}

	line := parts[1]
	if len(line) > maxLineSize {
		line = line[len(line)-maxLineSize:]
	} else {
		line = fmt.Sprintf("%0*s", maxLineSize, line)
	}

	return callerColor.Sprintf("┤ %s:%s ├", file, line)
}

// formatTimestamp formats timestamps in local time
func (f *consoleFormatter) formatTimestamp(i any) string {
	strTime, ok := i.(string)
	if !ok {
		return timestampColor.Sprintf("[ %v ]", i)
	}

	ts, err := time.ParseInLocation(time.RFC3339, strTime, time.Local)
	if err != nil {
		return timestampColor.Sprintf("[ %s ]", strTime)
	}

	formatted := ts.In(time.Local).Format(f.config.DateTimeLayout)
	return timestampColor.Sprintf("[ %s ]", formatted)
}

// formatFieldName formats field names with color
func (f *consoleFormatter) formatFieldName(i any) string {
	name, ok := i.(string)
	if !ok {
		return fmt.Sprintf("%v", i)
	}
	return fieldKeyColor.Sprint(name)
}

// formatFieldValue formats field values based on type
func (f *consoleFormatter) formatFieldValue(i any) string {
	switch v := i.(type) {
	case string:
		if strings.ContainsAny(v, " \t\n\r\"'") {
			return "=" + fieldValColor.Sprintf("%q", v)
		}
		return "=" + fieldValColor.Sprint(v)
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return fieldValColor.Sprintf("=%d", v)
	case float32, float64:
		return fieldValColor.Sprintf("=%.2f", v)
	case bool:
		if v {
			return "=" + color.HiGreenString("true")
		}
		return "=" + color.HiRedString("false")
	case nil:
		return "=" + color.HiBlackString("null")
	default:
		return fieldValColor.Sprintf("=%v", v)
	}
}

// Success logs a success message
func (zl *ZLogX) Success(msg string) {
	zl.Info().Msg("✅ " + msg)
}

// Failure logs a failure message
func (zl *ZLogX) Failure(msg string) {
	zl.Error().Msg("❌ " + msg)
}
