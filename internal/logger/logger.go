package logger

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Field is a structured log field with a concrete string value.
type Field struct {
	Key   string
	Value string
}

// Logger is the logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	HTTPMiddleware(next http.Handler) http.Handler
}

// Config holds logger construction options.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // "json" (default) or "text"
	Service string
	Output  io.Writer // defaults to os.Stdout
}

type logger struct {
	logrus *logrus.Logger
	fields []Field
}

// New creates a logger backed by logrus.
func New(config Config) Logger {
	l := logrus.New()

	if config.Format == "text" {
		l.SetFormatter(&logrus.TextFormatter{})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if config.Output != nil {
		l.SetOutput(config.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	switch config.Level {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	var fields []Field
	if config.Service != "" {
		fields = []Field{{Key: "service", Value: config.Service}}
	}

	return &logger{logrus: l, fields: fields}
}

// WithFields returns a new logger carrying additional fields.
func (l *logger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &logger{logrus: l.logrus, fields: merged}
}

func (l *logger) Debug(msg string, fields ...Field) { l.log(logrus.DebugLevel, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.log(logrus.InfoLevel, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.log(logrus.WarnLevel, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.log(logrus.ErrorLevel, msg, fields) }

func (l *logger) log(level logrus.Level, msg string, fields []Field) {
	logrusFields := make(logrus.Fields, len(l.fields)+len(fields))
	for _, f := range l.fields {
		logrusFields[f.Key] = f.Value
	}
	for _, f := range fields {
		logrusFields[f.Key] = f.Value
	}
	l.logrus.WithFields(logrusFields).Log(level, msg)
}

// String returns a Field for a string value.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int returns a Field for an integer value.
func Int(key string, value int) Field {
	return Field{Key: key, Value: strconv.Itoa(value)}
}

// Float64 returns a Field for a float value.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}

// Duration returns a Field for a time.Duration value.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err returns a Field for an error value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMiddleware logs one line per request with status, size and duration.
func (l *logger) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		l.Info("HTTP request",
			String("http_method", r.Method),
			String("http_path", r.URL.Path),
			Int("http_status", wrapped.statusCode),
			Int("response_bytes", wrapped.bytesWritten),
			Duration("duration", time.Since(start)),
		)
	})
}
