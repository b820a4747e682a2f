// Package flightstats serves live counter snapshots over Apache Arrow
// Flight: a single dataset-less service where every ticket is a small
// "snapshot:<prefix>" command rather than a name into a stored table,
// since there is nothing here to persist between requests — every DoGet
// re-renders the rows its Source currently returns into a RecordBatch.
package flightstats

import (
	"context"
	"encoding/binary"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ticketPrefix = "snapshot:"

// Row is one rendered counter: its name, kind, count, and accumulated
// stopwatch time in milliseconds (zero for non-stopwatch counters).
type Row struct {
	Name      string
	Kind      string
	Value     int64
	ElapsedMs int64
}

// Schema is the fixed Arrow schema every snapshot RecordBatch uses.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "kind", Type: arrow.BinaryTypes.String},
	{Name: "value", Type: arrow.PrimitiveTypes.Int64},
	{Name: "elapsed_ms", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// Source produces the rows for a given ticket prefix. Implemented by
// whatever owns the live counter tree (cmd/shardstatd's workload pool).
type Source func(prefix string) []Row

// Server implements flight.FlightServer over a Source. Unimplemented
// control-plane methods fall through to flight.BaseFlightServer's
// Unimplemented-status stubs.
type Server struct {
	flight.BaseFlightServer

	mem    memory.Allocator
	logger *zap.Logger
	source Source

	ticketMu sync.RWMutex
	tickets  map[uint64]string
}

// NewServer builds a flightstats Server backed by source.
func NewServer(logger *zap.Logger, source Source) *Server {
	return &Server{
		mem:     memory.NewGoAllocator(),
		logger:  logger,
		source:  source,
		tickets: make(map[uint64]string),
	}
}

// mintTicket caches prefix under an xxhash key and hands the client the
// 8-byte key as its ticket, so a GetFlightInfo/DoGet pair doesn't re-send
// the whole prefix string as the ticket payload.
func (s *Server) mintTicket(prefix string) *flight.Ticket {
	key := xxhash.Sum64String(prefix)
	s.ticketMu.Lock()
	s.tickets[key] = prefix
	s.ticketMu.Unlock()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, key)
	return &flight.Ticket{Ticket: buf}
}

// resolvePrefix accepts either a minted 8-byte hash ticket or the literal
// "snapshot:<prefix>" form for clients that construct tickets by hand
// without a prior GetFlightInfo call.
func (s *Server) resolvePrefix(ticket []byte) (string, error) {
	if len(ticket) == 8 {
		key := binary.BigEndian.Uint64(ticket)
		s.ticketMu.RLock()
		prefix, ok := s.tickets[key]
		s.ticketMu.RUnlock()
		if ok {
			return prefix, nil
		}
		return "", status.Error(codes.NotFound, "unknown snapshot ticket")
	}
	raw := string(ticket)
	if !strings.HasPrefix(raw, ticketPrefix) {
		return "", status.Error(codes.InvalidArgument, "ticket must start with \"snapshot:\"")
	}
	return strings.TrimPrefix(raw, ticketPrefix), nil
}

// GetFlightInfo reports the row count for the requested prefix without
// rendering the RecordBatch.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	prefix := ""
	if len(desc.Path) > 0 {
		prefix = desc.Path[0]
	}
	rows := s.source(prefix)
	return &flight.FlightInfo{
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{
			{Ticket: s.mintTicket(prefix)},
		},
		Schema:       flight.SerializeSchema(Schema, s.mem),
		TotalRecords: int64(len(rows)),
	}, nil
}

// GetSchema returns the fixed snapshot schema regardless of prefix.
func (s *Server) GetSchema(ctx context.Context, desc *flight.FlightDescriptor) (*flight.SchemaResult, error) {
	return &flight.SchemaResult{Schema: flight.SerializeSchema(Schema, s.mem)}, nil
}

// DoGet renders the current snapshot for the ticket's prefix as a single
// RecordBatch and streams it to the client.
func (s *Server) DoGet(tkt *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	prefix, err := s.resolvePrefix(tkt.Ticket)
	if err != nil {
		return err
	}

	rows := s.source(prefix)
	record := s.buildRecord(rows)
	defer record.Release()

	w := flight.NewRecordWriter(stream, ipc.WithSchema(Schema))
	defer w.Close()

	if err := w.Write(record); err != nil {
		s.logger.Error("flightstats: failed to write record", zap.Error(err))
		return status.Errorf(codes.Internal, "write record: %v", err)
	}
	return nil
}

func (s *Server) buildRecord(rows []Row) arrow.RecordBatch {
	builder := array.NewRecordBuilder(s.mem, Schema)
	defer builder.Release()

	nameBuilder := builder.Field(0).(*array.StringBuilder)
	kindBuilder := builder.Field(1).(*array.StringBuilder)
	valueBuilder := builder.Field(2).(*array.Int64Builder)
	elapsedBuilder := builder.Field(3).(*array.Int64Builder)

	for _, r := range rows {
		nameBuilder.Append(r.Name)
		kindBuilder.Append(r.Kind)
		valueBuilder.Append(r.Value)
		elapsedBuilder.Append(r.ElapsedMs)
	}

	return builder.NewRecordBatch()
}
