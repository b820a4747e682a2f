package flightstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMintTicketRoundTripsPrefix(t *testing.T) {
	s := NewServer(zap.NewNop(), func(prefix string) []Row { return nil })

	tkt := s.mintTicket("build")
	require.Len(t, tkt.Ticket, 8)
	prefix, err := s.resolvePrefix(tkt.Ticket)
	require.NoError(t, err)
	assert.Equal(t, "build", prefix)
}

func TestResolvePrefixAcceptsLiteralForm(t *testing.T) {
	s := NewServer(zap.NewNop(), func(prefix string) []Row { return nil })

	prefix, err := s.resolvePrefix([]byte("snapshot:build"))
	require.NoError(t, err)
	assert.Equal(t, "build", prefix)
}

func TestResolvePrefixRejectsBadTicket(t *testing.T) {
	s := NewServer(zap.NewNop(), func(prefix string) []Row { return nil })

	_, err := s.resolvePrefix([]byte("not-a-ticket"))
	assert.Error(t, err)

	_, err = s.resolvePrefix(make([]byte, 8))
	assert.Error(t, err)
}

func TestBuildRecordHasOneRowPerEntry(t *testing.T) {
	s := NewServer(zap.NewNop(), func(prefix string) []Row { return nil })

	rows := []Row{
		{Name: "Compile", Kind: "stopwatch", Value: 4, ElapsedMs: 120},
		{Name: "CacheHit", Kind: "numeric", Value: 9},
	}
	rec := s.buildRecord(rows)
	defer rec.Release()

	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, "name", Schema.Field(0).Name)
	assert.Equal(t, "elapsed_ms", Schema.Field(3).Name)
}
