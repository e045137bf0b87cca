package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLogFile = "logs/trainer.log"

// 전역 로거. 콘솔+파일 동시 출력 지원.
var (
	mu           sync.RWMutex
	globalLogger = zap.NewNop()
	closers      []io.Closer
)

// L는 전역 로거를 반환.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Options는 로거 구성. 환경변수 LOG_* 와 1:1 대응.
type Options struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	Caller     bool
	Format     string // legacy | json | console
	Color      bool
	Stdout     io.Writer
	Components []string
}

// OptionsFromEnv는 LOG_* 환경변수에서 Options를 만든다.
func OptionsFromEnv() Options {
	format := strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", "legacy")))
	return Options{
		Level:    getenvDefault("LOG_LEVEL", "info"),
		Console:  strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
		File:     strings.EqualFold(getenvDefault("LOG_TO_FILE", "true"), "true"),
		FilePath: strings.TrimSpace(getenvDefault("LOG_FILE", filepath.FromSlash(DefaultLogFile))),
		Caller:   strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
		Format:   format,
		Color:    strings.EqualFold(getenvDefault("LOG_COLOR", "false"), "true"),
	}
}

// InitFromEnv는 환경설정으로 전역 로거를 초기화.
func InitFromEnv() error {
	_, err := Init(OptionsFromEnv())
	return err
}

// Init은 Options로 로거를 만들고 전역 로거로 교체한다.
func Init(opts Options) (*zap.Logger, error) {
	logger, files, err := build(opts)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	prev := closers
	globalLogger = logger
	closers = files
	mu.Unlock()
	for _, c := range prev {
		_ = c.Close()
	}
	return logger, nil
}

// Sync는 버퍼를 비우고 열린 로그 파일을 닫는다. 종료 직전에 호출.
func Sync() {
	mu.Lock()
	logger := globalLogger
	files := closers
	closers = nil
	mu.Unlock()
	_ = logger.Sync()
	for _, c := range files {
		_ = c.Close()
	}
}

func build(opts Options) (*zap.Logger, []io.Closer, error) {
	level := parseLevel(opts.Level)
	format := opts.Format
	if format != "legacy" && format != "json" && format != "console" {
		format = "legacy"
	}

	var cores []zapcore.Core
	var files []io.Closer

	if opts.Console {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		cores = append(cores, zapcore.NewCore(encoder(format, opts.Color), zapcore.AddSync(out), level))
	}

	if opts.File {
		path := opts.FilePath
		if strings.TrimSpace(path) == "" {
			path = filepath.FromSlash(DefaultLogFile)
		}
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		files = append(files, f)
		// 파일에는 색상 코드를 쓰지 않는다.
		cores = append(cores, zapcore.NewCore(encoder(format, false), zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.Caller || format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	for _, name := range opts.Components {
		logger = logger.Named(name)
	}
	return logger, files, nil
}

func encoder(format string, color bool) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig(color))
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// 인코더 설정들
func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
