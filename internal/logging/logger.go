// Package logging builds the zap logger the daemon logs through. Log
// volume is tracked per level with the module's own sharded counters,
// so log traffic folds into the same Prometheus exporter as the
// workload counters instead of needing a separate promauto vector.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/23skdu/shardstat/internal/counters"
)

// Level enumerates the volume-counter columns, one per severity that
// can reach a sink.
type Level int

const (
	LevelDebug Level = 0
	LevelInfo  Level = 1
	LevelWarn  Level = 2
	LevelError Level = 3
	LevelFatal Level = 4
)

// volume is the process-wide per-level entry counter every logger built
// by NewLogger reports into.
var volume = mustVolume()

func mustVolume() *counters.Typed[Level] {
	t, err := counters.Bind([]counters.Member[Level]{
		{Value: LevelDebug, Kind: counters.KindNumeric, Name: "Debug"},
		{Value: LevelInfo, Kind: counters.KindNumeric, Name: "Info"},
		{Value: LevelWarn, Kind: counters.KindNumeric, Name: "Warn"},
		{Value: LevelError, Kind: counters.KindNumeric, Name: "Error"},
		{Value: LevelFatal, Kind: counters.KindNumeric, Name: "Fatal"},
	}, (*counters.Typed[Level])(nil))
	if err != nil {
		panic(err)
	}
	return t
}

// VolumeStatistics reports the per-level entry counts under a "log"
// prefix ("log.Debug", "log.Info", ...), shaped for promstats.Exporter.
func VolumeStatistics() map[string]int64 {
	return volume.Statistics("log")
}

// countEntry is installed as a zap hook on every logger NewLogger
// builds; it runs once per entry that passes level filtering.
func countEntry(entry zapcore.Entry) error {
	switch {
	case entry.Level <= zapcore.DebugLevel:
		return volume.Increment(LevelDebug)
	case entry.Level == zapcore.InfoLevel:
		return volume.Increment(LevelInfo)
	case entry.Level == zapcore.WarnLevel:
		return volume.Increment(LevelWarn)
	case entry.Level == zapcore.ErrorLevel:
		return volume.Increment(LevelError)
	default:
		return volume.Increment(LevelFatal)
	}
}

// Config holds logger configuration options.
type Config struct {
	// Format specifies the log output format: "json" or "text"
	Format string
	// Level specifies the minimum log level: "debug", "info", "warn", "error"
	Level string
	// Output specifies where logs are written (defaults to os.Stdout)
	Output zapcore.WriteSyncer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Format: "json",
		Level:  "info",
		Output: os.Stdout,
	}
}

// NewLogger creates a zap logger from cfg, with the volume-counting
// hook installed.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), output, level)
	return zap.New(core, zap.AddCaller(), zap.Hooks(countEntry)), nil
}

// DiscardLogger returns a logger that discards all output (useful for
// tests). Discarded entries are not counted.
func DiscardLogger() *zap.Logger {
	return zap.NewNop()
}

func newEncoder(format string) zapcore.Encoder {
	switch strings.ToLower(format) {
	case "text", "console":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "dpanic":
		return zapcore.DPanicLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}
