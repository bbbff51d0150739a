package logging

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

type ctxKey int

const (
	sessionTokenKey ctxKey = iota
	requestIDKey
)

var (
	_logger           = NewTmpLogger()
	_xRequestIDHeader = "x_request_id"
)

// Config selects the zap preset, level and optional output file.
type Config struct {
	Level  string
	Pretty bool
	File   string
}

func NewLogger(cfg Config) (*zap.Logger, error) {
	var c zap.Config
	var opts []zap.Option
	if cfg.Pretty {
		c = zap.NewDevelopmentConfig()
		opts = append(opts, zap.AddStacktrace(zap.ErrorLevel))
	} else {
		c = zap.NewProductionConfig()
	}

	level := zap.NewAtomicLevel()

	levelName := "INFO"
	if cfg.Level != "" {
		levelName = strings.ToUpper(cfg.Level)
	}

	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("could not parse log level %s", cfg.Level)
	}
	c.Level = level

	if cfg.File != "" {
		c.OutputPaths = []string{cfg.File}
		c.ErrorOutputPaths = []string{cfg.File}
	}

	return c.Build(opts...)
}

func InitLogger(cfg Config) (err error) {
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	_logger = l
	return nil
}

func NewTmpLogger() *zap.Logger {
	c := zap.NewProductionConfig()
	c.DisableStacktrace = true
	l, err := c.Build()
	if err != nil {
		panic(err)
	}
	return l
}

// Logger Return new logger with context value
// ctx:  nillable
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil || ctx == context.TODO() {
		return _logger
	}
	logger := injectSessionToken(_logger, ctx)
	logger = injectXRequestID(logger, ctx)
	logger = injectDatadogTracing(logger, ctx)
	return logger
}

func SetXRequestIDHeader(headerName string) {
	_xRequestIDHeader = headerName
}

// WithSessionToken tags every log line produced from ctx with the session token.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func injectDatadogTracing(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if service, ok := os.LookupEnv("DD_SERVICE"); ok {
		logger = logger.With(zap.String("dd.service", service))
	}

	if env, ok := os.LookupEnv("DD_ENV"); ok {
		logger = logger.With(zap.String("dd.env", env))
	}

	span, ok := tracer.SpanFromContext(ctx)
	if !ok {
		return logger
	}

	spanCtx := span.Context()

	return logger.With(zap.String("dd.trace_id", strconv.FormatUint(spanCtx.TraceID(), 10)),
		zap.String("dd.span_id", strconv.FormatUint(spanCtx.SpanID(), 10)))
}

func injectSessionToken(logger *zap.Logger, ctx context.Context) *zap.Logger {
	token, _ := ctx.Value(sessionTokenKey).(string)
	if token == "" {
		return logger
	}
	return logger.With(zap.String("session_token", token))
}

func injectXRequestID(logger *zap.Logger, ctx context.Context) *zap.Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		return logger
	}
	return logger.With(zap.String(_xRequestIDHeader, requestID))
}
