// Package logging provides structured logging setup shared by the bot and the
// status probe.
package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/config"
)

const defaultService = "vpn-store-bot"

var baseLogger *logrus.Entry

// Context captures common optional fields to attach to log entries.
type Context struct {
	UserID  int64
	ChatID  int64
	OrderID string
	PlanID  int64
	Event   string
}

// Fields is a shorthand alias for structured log fields.
type Fields = logrus.Fields

// Options selects formatting and verbosity for Setup.
type Options struct {
	Service  string
	AppEnv   string
	LogLevel string
}

// Setup configures the global logger. Development gets a text formatter,
// everything else JSON. Every entry carries service and env fields.
func Setup(opts Options) (*logrus.Entry, error) {
	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	service := strings.TrimSpace(opts.Service)
	if service == "" {
		service = defaultService
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(formatterForEnv(opts.AppEnv))

	baseLogger = logger.WithFields(logrus.Fields{
		"service": service,
		"env":     opts.AppEnv,
	})

	return baseLogger, nil
}

// Logger returns the configured base logger, initializing a default one if Setup
// has not been called (useful for early boot errors).
func Logger() *logrus.Entry {
	return ensureLogger()
}

// WithContext returns a logger entry enriched with the non-zero fields of ctx.
func WithContext(ctx Context) *logrus.Entry {
	return logWithFields(ctx.fields())
}

// Enrich adds the non-zero fields of ctx to an existing entry.
func Enrich(entry *logrus.Entry, ctx Context) *logrus.Entry {
	if entry == nil {
		entry = ensureLogger()
	}

	fields := ctx.fields()
	if len(fields) == 0 {
		return entry
	}
	return entry.WithFields(fields)
}

func (c Context) fields() logrus.Fields {
	fields := logrus.Fields{}

	if c.UserID != 0 {
		fields["user_id"] = c.UserID
	}
	if c.ChatID != 0 {
		fields["chat_id"] = c.ChatID
	}
	if strings.TrimSpace(c.OrderID) != "" {
		fields["order_id"] = strings.TrimSpace(c.OrderID)
	}
	if c.PlanID != 0 {
		fields["plan_id"] = c.PlanID
	}
	if strings.TrimSpace(c.Event) != "" {
		fields["event"] = strings.TrimSpace(c.Event)
	}

	return fields
}

// Info logs an informational message with optional structured fields.
func Info(msg string, fields logrus.Fields) {
	logWithFields(fields).Info(msg)
}

// Warn logs a warning message with optional structured fields.
func Warn(msg string, fields logrus.Fields) {
	logWithFields(fields).Warn(msg)
}

// Error logs an error message with optional structured fields.
func Error(msg string, fields logrus.Fields) {
	logWithFields(fields).Error(msg)
}

func logWithFields(fields logrus.Fields) *logrus.Entry {
	entry := ensureLogger()
	if len(fields) == 0 {
		return entry
	}

	return entry.WithFields(fields)
}

func ensureLogger() *logrus.Entry {
	if baseLogger != nil {
		return baseLogger
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(formatterForEnv(config.DefaultAppEnv))

	baseLogger = logger.WithFields(logrus.Fields{
		"service": defaultService,
		"env":     config.DefaultAppEnv,
	})

	return baseLogger
}

func formatterForEnv(appEnv string) logrus.Formatter {
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "ts",
		logrus.FieldKeyMsg:   "msg",
		logrus.FieldKeyLevel: "level",
	}

	if appEnv == config.EnvDevelopment {
		return &logrus.TextFormatter{
			FullTimestamp:          true,
			TimestampFormat:        time.RFC3339Nano,
			FieldMap:               fieldMap,
			DisableLevelTruncation: true,
		}
	}

	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap:        fieldMap,
	}
}

func parseLevel(value string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", value, err)
	}

	return level, nil
}

// resetLogger clears the cached logger; used in tests.
func resetLogger() {
	baseLogger = nil
}
