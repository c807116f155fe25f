package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 全局日志实例，未初始化时为 Nop
var Log = zap.NewNop()

// Init 初始化日志：控制台 + 按大小滚动的 JSON 文件
func Init(level, file string) error {
	if file == "" {
		file = "logs/server.log"
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}

	lvl := parseLevel(level)

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	})

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), lvl),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), fileWriter, lvl),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Log.Info("日志初始化完成", zap.String("level", lvl.String()), zap.String("file", file))
	return nil
}

// Sync 刷新缓冲
func Sync() {
	_ = Log.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Named 返回带组件名的子 logger，例如 logger.Named("CleanupService")
func Named(component string) *zap.Logger {
	return Log.With(zap.String("component", component))
}

func WithRequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

func WithUserID(id uint) zap.Field {
	return zap.Uint("user_id", id)
}
