// Package snapshotstore periodically writes counter-delta rows to
// Parquet files, one file per snapshot tick. Each write's duration,
// size, and outcome is recorded to Prometheus.
package snapshotstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	// WritesTotal counts snapshot write attempts by outcome.
	WritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardstat_snapshot_writes_total",
			Help: "Total number of counter snapshot write attempts",
		},
		[]string{"status"},
	)

	// WriteDurationSeconds measures snapshot write latency.
	WriteDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shardstat_snapshot_write_duration_seconds",
			Help:    "Duration of counter snapshot Parquet writes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SizeBytes observes the on-disk size of each written snapshot file.
	SizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shardstat_snapshot_size_bytes",
			Help:    "Size in bytes of written counter snapshot files",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		},
	)
)

// Row is one column-group of a counter's delta since the previous
// snapshot, the unit persisted to Parquet.
type Row struct {
	Ts    int64  `parquet:"ts"`
	Name  string `parquet:"name"`
	Kind  string `parquet:"kind"`
	Delta int64  `parquet:"delta"`
}

// Store writes snapshot files into a directory, one per tick.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore ensures dir exists and returns a Store rooted there.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// WriteDelta writes rows to a new Parquet file named by ts and returns
// its path.
func (s *Store) WriteDelta(ts int64, rows []Row) (path string, err error) {
	start := time.Now()
	defer func() {
		WriteDurationSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			WritesTotal.WithLabelValues("error").Inc()
		} else {
			WritesTotal.WithLabelValues("ok").Inc()
		}
	}()

	path = filepath.Join(s.dir, fmt.Sprintf("snapshot-%020d.parquet", ts))
	f, ferr := os.Create(path)
	if ferr != nil {
		return "", fmt.Errorf("create snapshot file: %w", ferr)
	}

	writer := parquet.NewGenericWriter[Row](f)
	if _, werr := writer.Write(rows); werr != nil {
		f.Close()
		return "", fmt.Errorf("write snapshot rows: %w", werr)
	}
	if cerr := writer.Close(); cerr != nil {
		f.Close()
		return "", fmt.Errorf("close snapshot writer: %w", cerr)
	}
	if cerr := f.Close(); cerr != nil {
		return "", fmt.Errorf("close snapshot file: %w", cerr)
	}

	if info, statErr := os.Stat(path); statErr == nil {
		SizeBytes.Observe(float64(info.Size()))
	}
	return path, nil
}

// ReadAll reads every row back out of a snapshot file written by
// WriteDelta, used by tests and by cmd/shardstat-query's fallback path.
func ReadAll(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[Row](f)
	defer reader.Close()

	rows := make([]Row, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read snapshot rows: %w", err)
	}
	return rows[:n], nil
}

// SnapshotFunc produces the rows for one tick plus the timestamp to tag
// them with.
type SnapshotFunc func() (ts int64, rows []Row)

// RunTicker calls snapshot and writes its result every interval, until
// ctx is cancelled. Write failures are logged, not fatal — a single
// missed snapshot doesn't stop the loop.
func (s *Store) RunTicker(ctx context.Context, interval time.Duration, snapshot SnapshotFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts, rows := snapshot()
			if _, err := s.WriteDelta(ts, rows); err != nil {
				s.logger.Error("snapshotstore: write failed", zap.Error(err))
			}
		}
	}
}
