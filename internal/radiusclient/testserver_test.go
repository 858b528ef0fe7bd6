package radiusclient

import (
	"crypto/md5"
	"net"
	"sync"
	"testing"

	"github.com/hydraradius/hydraradius/internal/radius"
	"github.com/stretchr/testify/require"
)

// testServerBehavior scripts how a test RADIUS peer reacts to an incoming
// Access-Request, so the same harness can drive every scenario in spec.md
// section 8 without a real RADIUS daemon.
type testServerBehavior int

const (
	behaviorEcho       testServerBehavior = iota // reply Access-Accept immediately
	behaviorSilent                               // never reply
	behaviorDelayOnce                            // drop the first datagram per identifier, answer the rest
)

// testRadiusServer is a minimal scripted RADIUS peer bound to a real UDP
// socket, used to exercise the scheduler end-to-end.
type testRadiusServer struct {
	conn     *net.UDPConn
	secret   []byte
	behavior testServerBehavior

	mu   sync.Mutex
	seen map[uint8]int
}

func newTestRadiusServer(t *testing.T, secret string, behavior testServerBehavior) *testRadiusServer {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)

	s := &testRadiusServer{
		conn:     conn,
		secret:   []byte(secret),
		behavior: behavior,
		seen:     make(map[uint8]int),
	}
	t.Cleanup(func() { _ = conn.Close() })
	go s.run()
	return s
}

func (s *testRadiusServer) addr() string { return s.conn.LocalAddr().String() }

func (s *testRadiusServer) run() {
	buf := make([]byte, 4096)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		req, err := radius.Unmarshal(buf[:n])
		if err != nil {
			continue
		}

		switch s.behavior {
		case behaviorSilent:
			continue
		case behaviorDelayOnce:
			s.mu.Lock()
			count := s.seen[req.Identifier]
			s.seen[req.Identifier] = count + 1
			s.mu.Unlock()
			if count == 0 {
				continue
			}
		}
		s.reply(req, addr)
	}
}

func (s *testRadiusServer) reply(req *radius.Packet, addr *net.UDPAddr) {
	resp := &radius.Packet{Code: radius.CodeAccessAccept, Identifier: req.Identifier}
	resp.Authenticator = req.Authenticator
	preimage, err := resp.Marshal()
	if err != nil {
		return
	}
	h := md5.New()
	h.Write(preimage)
	h.Write(s.secret)
	copy(resp.Authenticator[:], h.Sum(nil))

	raw, err := resp.Marshal()
	if err != nil {
		return
	}
	_, _ = s.conn.WriteToUDP(raw, addr)
}

// spoofReply sends a datagram that carries identifier but originates from
// a throwaway socket, simulating an off-path attacker or a misrouted reply
// from an unrelated peer (spec.md section 8, scenario S5).
func spoofReply(t *testing.T, clientAddr string, identifier uint8) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", clientAddr)
	require.NoError(t, err)

	p := &radius.Packet{Code: radius.CodeAccessAccept, Identifier: identifier}
	raw, err := p.Marshal()
	require.NoError(t, err)
	_, _ = conn.WriteToUDP(raw, dst)
}

func newAccessRequest(t *testing.T, user string) []byte {
	t.Helper()
	p := &radius.Packet{Code: radius.CodeAccessRequest}
	p.AppendAVP(radius.AttrUserName, []byte(user))
	raw, err := p.Marshal()
	require.NoError(t, err)
	return raw
}
