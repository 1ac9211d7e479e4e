package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05"

var logger = zap.NewNop()

type Options struct {
	Verbose bool
	// Output defaults to stderr.
	Output io.Writer
	// File, when set, receives a copy of every entry with size based rotation.
	File string
}

func level(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func encoderConfig() zapcore.EncoderConfig {
	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeLevel = zapcore.CapitalLevelEncoder
	config.ConsoleSeparator = " "
	config.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	return config
}

// InitCLI builds the process logger. Entries go to stderr so that stdout stays
// free for command output.
func InitCLI(options Options) *zap.Logger {
	enabled := zap.NewAtomicLevelAt(level(options.Verbose))
	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	var output io.Writer = os.Stderr
	if options.Output != nil {
		output = options.Output
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), enabled),
	}
	if options.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
		cores = append(cores, zapcore.NewCore(encoder.Clone(), sink, enabled))
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger
}

func Sync() {
	_ = logger.Sync()
}
