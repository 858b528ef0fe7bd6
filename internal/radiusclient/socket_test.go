package radiusclient

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSocket(t *testing.T) *socket {
	t.Helper()
	conn, err := net.ListenUDP("udp4", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return newSocket(conn, 4, 0)
}

func TestSocket_NewSocket_MinimumRecvBuffer(t *testing.T) {
	s := newTestSocket(t)
	assert.Len(t, s.recvBuf, 4096)
}

func TestSocket_BindExplicitAndUnbind(t *testing.T) {
	s := newTestSocket(t)
	q := &Query{}
	s.bindExplicit(5, q)

	assert.Equal(t, q, s.slots[5])
	assert.Equal(t, 1, s.queriesCount)
	assert.Equal(t, s, q.socket)
	assert.Equal(t, uint8(5), q.slotID)

	s.unbind(q)
	assert.Nil(t, s.slots[5])
	assert.Equal(t, 0, s.queriesCount)
	assert.Nil(t, q.socket)
	assert.True(t, s.isEmpty())
}

func TestSocket_BindAuto_FillsFromCursor(t *testing.T) {
	s := newTestSocket(t)
	q1 := &Query{}
	id1, ok := s.bindAuto(q1)
	require.True(t, ok)
	assert.Equal(t, uint8(0), id1)

	q2 := &Query{}
	id2, ok := s.bindAuto(q2)
	require.True(t, ok)
	assert.Equal(t, uint8(1), id2)
}

func TestSocket_BindAuto_WrapsAndSkipsOccupied(t *testing.T) {
	s := newTestSocket(t)
	held := &Query{}
	s.bindExplicit(0, held)
	s.queriesIndex = 0

	q := &Query{}
	id, ok := s.bindAuto(q)
	require.True(t, ok)
	assert.Equal(t, uint8(1), id)
}

func TestSocket_BindAuto_FullReturnsFalse(t *testing.T) {
	s := newTestSocket(t)
	for i := 0; i < slotCount; i++ {
		s.bindExplicit(uint8(i), &Query{})
	}
	_, ok := s.bindAuto(&Query{})
	assert.False(t, ok)
}

func TestSocket_Unbind_IgnoresMismatchedQuery(t *testing.T) {
	s := newTestSocket(t)
	q := &Query{}
	s.bindExplicit(3, q)

	other := &Query{}
	s.unbind(other)

	assert.Equal(t, q, s.slots[3])
	assert.Equal(t, 1, s.queriesCount)
}
