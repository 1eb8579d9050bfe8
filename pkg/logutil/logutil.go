// Copyright 2021 - 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig is the logging section of the process configuration.
type LogConfig struct {
	// Level is the minimum enabled level: debug, info, warn, error, panic, fatal.
	Level string `toml:"level"`
	// Format of the output: console or json.
	Format string `toml:"format"`
	// Filename is the target log file. Empty means stderr.
	Filename string `toml:"filename"`
	// MaxSize is the maximum size in MB of a log file before rotation.
	MaxSize int `toml:"max-size"`
	// MaxDays is the maximum number of days to retain old log files.
	MaxDays int `toml:"max-days"`
	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int `toml:"max-backups"`
}

// ZapSink is a pairing of encoder and output used to build a zap core.
type ZapSink struct {
	Enc zapcore.Encoder
	Out zapcore.WriteSyncer
}

var _globalLogger atomic.Value

func init() {
	SetupMOLogger(&LogConfig{Level: "info", Format: "console"})
}

// SetupMOLogger builds the global logger from conf. Panics on an invalid
// level or format.
func SetupMOLogger(conf *LogConfig) {
	logger := initMOLogger(conf)
	replaceGlobalLogger(logger)
	logger.Debug("MO logger init", zap.String("level", conf.Level), zap.String("format", conf.Format))
}

func initMOLogger(cfg *LogConfig) *zap.Logger {
	sinks := cfg.getSinks()
	cores := make([]zapcore.Core, 0, len(sinks))
	for _, sink := range sinks {
		cores = append(cores, zapcore.NewCore(sink.Enc, sink.Out, cfg.getLevel()))
	}
	return zap.New(zapcore.NewTee(cores...), cfg.getOptions()...)
}

// GetGlobalLogger returns the current global logger. Safe for concurrent use.
func GetGlobalLogger() *zap.Logger {
	return _globalLogger.Load().(*zap.Logger)
}

func replaceGlobalLogger(logger *zap.Logger) {
	_globalLogger.Store(logger)
	zap.ReplaceGlobals(logger)
}

func (cfg *LogConfig) getLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		panic(err)
	}
	return level
}

func (cfg *LogConfig) getOptions() []zap.Option {
	return []zap.Option{zap.AddStacktrace(zapcore.FatalLevel), zap.AddCaller()}
}

func (cfg *LogConfig) getSinks() []ZapSink {
	sinks := []ZapSink{{cfg.getEncoder(), cfg.getSyncer()}}
	return sinks
}

func (cfg *LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename != "" {
		return getLumberjackSyncer(cfg.Filename, cfg.MaxSize, cfg.MaxDays, cfg.MaxBackups)
	}
	return getConsoleSyncer()
}

func (cfg *LogConfig) getEncoder() zapcore.Encoder {
	return getLoggerEncoder(cfg.Format)
}

func getConsoleSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(os.Stderr)
}

func getLumberjackSyncer(filename string, maxSize, maxDays, maxBackups int) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxAge:     maxDays,
		MaxBackups: maxBackups,
		LocalTime:  true,
	})
}

func getLoggerEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	switch format {
	case "json", "":
		return zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		return zapcore.NewConsoleEncoder(encoderConfig)
	default:
		panic("unsupported log format: " + format)
	}
}
