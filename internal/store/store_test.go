package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hydraradius/hydraradius/internal/radiusclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndListServers(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddServer(ServerRecord{
		Address:           "127.0.0.1:1812",
		Secret:            "abc",
		RetransTimeInitMs: 100,
		Enabled:           true,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	servers, err := s.ListServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "127.0.0.1:1812", servers[0].Address)
	assert.True(t, servers[0].Enabled)
}

func TestDeleteServerByAddress(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddServer(ServerRecord{Address: "10.0.0.1:1812", Secret: "x", Enabled: true})
	require.NoError(t, err)

	require.NoError(t, s.DeleteServerByAddress("10.0.0.1:1812"))

	servers, err := s.ListServers()
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestStatsHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	var snap radiusclient.Stats
	snap.QueriesSent.Add(10)
	snap.Completed.Add(9)
	snap.TimedOut.Add(1)

	require.NoError(t, s.RecordStatsSnapshot(time.Now(), snap.Snapshot()))

	history, err := s.StatsHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.EqualValues(t, 10, history[0].QueriesSent)
	assert.EqualValues(t, 9, history[0].Completed)
}

func TestPruneStatsHistoryKeepsMostRecent(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		var snap radiusclient.Stats
		snap.QueriesSent.Add(uint64(i))
		require.NoError(t, s.RecordStatsSnapshot(time.Now(), snap.Snapshot()))
	}

	require.NoError(t, s.PruneStatsHistory(2))

	history, err := s.StatsHistory(10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Health())
}
