package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/23skdu/shardstat/internal/counters"
	"github.com/23skdu/shardstat/internal/flightstats"
	"github.com/23skdu/shardstat/internal/logging"
	"github.com/23skdu/shardstat/internal/promstats"
	"github.com/23skdu/shardstat/internal/snapshotstore"
	"github.com/23skdu/shardstat/internal/workload"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "shardstatd:", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "shardstatd: logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := workload.NewPool(cfg.Workers, logger)
	if err != nil {
		logger.Fatal("failed to build workload pool", zap.Error(err))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := pool.Run(ctx); err != nil {
			logger.Error("workload pool exited", zap.Error(err))
		}
	}()

	exporter := promstats.NewExporter("", func() map[string]int64 {
		stats := pool.Parent.Statistics("")
		for name, value := range logging.VolumeStatistics() {
			stats[name] = value
		}
		return stats
	})
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: exporter.Handler()}
	go func() {
		logger.Info("serving prometheus metrics", zap.String("address", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()

	flightServer := flightstats.NewServer(logger, func(prefix string) []flightstats.Row {
		snap := pool.Parent.Snapshot()
		handles := snap.Enumerate()
		rows := make([]flightstats.Row, 0, len(handles))
		for _, h := range handles {
			if prefix != "" && !strings.HasPrefix(h.Name(), prefix) {
				continue
			}
			rows = append(rows, flightstats.Row{
				Name:      h.Name(),
				Kind:      h.Kind().String(),
				Value:     h.Value(),
				ElapsedMs: h.Duration().Milliseconds(),
			})
		}
		return rows
	})

	lis, err := net.Listen("tcp", cfg.FlightAddr)
	if err != nil {
		logger.Fatal("failed to listen for flight", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
	go func() {
		logger.Info("serving arrow flight", zap.String("address", cfg.FlightAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("flight server exited", zap.Error(err))
		}
	}()

	store, err := snapshotstore.NewStore(cfg.SnapshotDir, logger)
	if err != nil {
		logger.Fatal("failed to init snapshot store", zap.Error(err))
	}

	var prevSnap *counters.Typed[workload.Op]
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.RunTicker(ctx, cfg.SnapshotInterval, func() (int64, []snapshotstore.Row) {
			ts := time.Now().UnixNano()
			curr := pool.Parent.Snapshot()
			rows := deltaRows(prevSnap, curr, ts)
			prevSnap = curr
			return ts, rows
		})
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	wg.Wait()
}

// deltaRows computes, per counter, curr's value minus prev's (zero if
// prev is nil, the first tick).
func deltaRows(prev, curr *counters.Typed[workload.Op], ts int64) []snapshotstore.Row {
	handles := curr.Enumerate()
	var prevHandles []counters.Handle
	if prev != nil {
		prevHandles = prev.Enumerate()
	}
	rows := make([]snapshotstore.Row, len(handles))
	for i, h := range handles {
		delta := h.Value()
		if prevHandles != nil {
			delta -= prevHandles[i].Value()
		}
		rows[i] = snapshotstore.Row{Ts: ts, Name: h.Name(), Kind: h.Kind().String(), Delta: delta}
	}
	return rows
}
