package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 전역 로거. 초기화 전에는 Nop.
var (
	globalLogger *zap.Logger = zap.NewNop()
)

// L는 전역 로거를 반환.
func L() *zap.Logger { return globalLogger }

// Options는 로거 구성값. InitFromEnv가 환경변수에서 채운다.
type Options struct {
	Level      string
	Console    bool
	ToFile     bool
	FilePath   string
	ShowCaller bool
	Format     string
}

// OptionsFromEnv reads LOG_* variables.
func OptionsFromEnv() Options {
	return Options{
		Level:      getenvDefault("LOG_LEVEL", "info"),
		Console:    strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
		ToFile:     strings.EqualFold(getenvDefault("LOG_TO_FILE", "false"), "true"),
		FilePath:   strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "review.log"))),
		ShowCaller: strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
		Format:     getenvDefault("LOG_FORMAT", "legacy"),
	}
}

// InitFromEnv는 환경설정으로 zap 로거를 초기화.
func InitFromEnv() error {
	return Init(OptionsFromEnv())
}

// Init builds the global logger. Console and file cores are teed.
func Init(opt Options) error {
	logger, err := Build(opt)
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// Build returns a logger without installing it globally.
func Build(opt Options) (*zap.Logger, error) {
	level := parseLevel(opt.Level)
	format := normalizeFormat(opt.Format)

	var cores []zapcore.Core
	if opt.Console {
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.AddSync(os.Stdout), level))
	}

	if opt.ToFile {
		filePath := opt.FilePath
		if filePath == "" {
			filePath = filepath.Join("logs", "review.log")
		}
		if err := ensureDir(filepath.Dir(filePath)); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if format == "legacy" || opt.ShowCaller {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, nil
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "legacy" && format != "json" && format != "console" {
		return "legacy"
	}
	return format
}

func newEncoder(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig(false))
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
