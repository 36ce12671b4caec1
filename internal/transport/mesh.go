// Package transport implements the TCP mesh between MPC parties (§6.6) and
// an in-process mock mesh used by the multi-party tests of the backend and
// circuit packages. It is grounded on mpc_signer's party
// address map / retry-until-ready dial loop and on
// demos-go/examples/ecdsa-2pc's mocknet in-process network.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Conn is one bidirectional link to a peer party. Frames are whole
// messages; Send/Recv are safe to call concurrently with each other (not
// with themselves) so a mesh can write to every peer while reading from
// every peer in parallel without deadlocking.
type Conn interface {
	Send(frame []byte) error
	Recv() ([]byte, error)
	Close() error
}

// frameConn adds length-prefixed framing and byte counters over a raw
// net.Conn, the same shape mpc_signer's mTLS messenger assumes its
// transport provides.
type frameConn struct {
	c         net.Conn
	sentBytes *uint64
	recvBytes *uint64
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

func newFrameConn(c net.Conn, sent, recv *uint64) *frameConn {
	return &frameConn{c: c, sentBytes: sent, recvBytes: recv}
}

func (f *frameConn) Send(frame []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(frame)))
	if _, err := f.c.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := f.c.Write(frame); err != nil {
		return err
	}
	atomic.AddUint64(f.sentBytes, uint64(4+len(frame)))
	return nil
}

func (f *frameConn) Recv() ([]byte, error) {
	f.readMu.Lock()
	defer f.readMu.Unlock()
	var hdr [4]byte
	if _, err := io.ReadFull(f.c, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(f.c, buf); err != nil {
			return nil, err
		}
	}
	atomic.AddUint64(f.recvBytes, uint64(4+n))
	return buf, nil
}

func (f *frameConn) Close() error { return f.c.Close() }

// Mesh is the full set of point-to-point links one party maintains to
// every other party. The mesh's lifetime is scoped to the party object
// that owns it: Close releases every connection regardless of how the
// caller exits (normal return or error path).
type Mesh struct {
	id    int
	n     int
	peers map[int]Conn

	sentBytes uint64
	recvBytes uint64
}

// ID is this party's index within the mesh.
func (m *Mesh) ID() int { return m.id }

// NParties is the total number of parties in the mesh, including self.
func (m *Mesh) NParties() int { return m.n }

// BytesSent/BytesRecv report cumulative wire traffic for statistics (§6.5).
func (m *Mesh) BytesSent() uint64 { return atomic.LoadUint64(&m.sentBytes) }
func (m *Mesh) BytesRecv() uint64 { return atomic.LoadUint64(&m.recvBytes) }

// Close releases every peer connection.
func (m *Mesh) Close() error {
	var firstErr error
	for _, c := range m.peers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Exchange broadcasts payload to every peer and returns every party's
// payload for this round, including the caller's own. Because every party
// runs the identical circuit in lockstep (§5), a bare sequential
// write-then-read per peer — issued concurrently across peers — is enough
// to keep the protocol synchronized without per-round sequence numbers.
func (m *Mesh) Exchange(payload []byte) (map[int][]byte, error) {
	result := make(map[int][]byte, m.n)
	result[m.id] = payload

	var mu sync.Mutex
	var g errgroup.Group

	for peerID, conn := range m.peers {
		peerID, conn := peerID, conn
		g.Go(func() error {
			writeErr := make(chan error, 1)
			go func() { writeErr <- conn.Send(payload) }()
			data, err := conn.Recv()
			if err != nil {
				return fmt.Errorf("recv from party %d: %w", peerID, err)
			}
			if err := <-writeErr; err != nil {
				return fmt.Errorf("send to party %d: %w", peerID, err)
			}
			mu.Lock()
			result[peerID] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// PartyAddr is one entry of the --parties CLI flag (§6.1): party id plus
// its dotted-IPv4 address and TCP port.
type PartyAddr struct {
	ID   int
	IP   string
	Port int
}

func (p PartyAddr) String() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

// DialConfig describes the full mesh this party must establish.
type DialConfig struct {
	SelfID  int
	Parties []PartyAddr

	// DialTimeout bounds each individual dial attempt; retries continue
	// every 200ms until the peer listener is reachable, giving up after
	// 30 seconds.
	DialTimeout time.Duration
}

// DialMesh establishes the TCP mesh for one party: it listens for
// connections from lower-id parties and dials every higher-id party,
// which avoids duplicate connections between any pair. The convention
// mirrors mpc_signer's party-index -> address configuration map.
func DialMesh(cfg DialConfig) (*Mesh, error) {
	byID := make(map[int]PartyAddr, len(cfg.Parties))
	for _, p := range cfg.Parties {
		byID[p.ID] = p
	}
	self, ok := byID[cfg.SelfID]
	if !ok {
		return nil, fmt.Errorf("transport: self id %d missing from --parties", cfg.SelfID)
	}

	m := &Mesh{id: cfg.SelfID, n: len(byID), peers: make(map[int]Conn, len(byID)-1)}

	var lowerIDs []int
	var higherIDs []int
	for id := range byID {
		switch {
		case id < cfg.SelfID:
			lowerIDs = append(lowerIDs, id)
		case id > cfg.SelfID:
			higherIDs = append(higherIDs, id)
		}
	}
	sort.Ints(lowerIDs)
	sort.Ints(higherIDs)

	var ln net.Listener
	if len(lowerIDs) > 0 {
		var err error
		ln, err = net.Listen("tcp", fmt.Sprintf(":%d", self.Port))
		if err != nil {
			return nil, fmt.Errorf("transport: listen on %s: %w", self, err)
		}
		defer ln.Close()
	}

	type accepted struct {
		id int
		c  net.Conn
	}
	acceptCh := make(chan accepted, len(lowerIDs))
	acceptErrCh := make(chan error, 1)
	if ln != nil {
		go func() {
			for i := 0; i < len(lowerIDs); i++ {
				c, err := ln.Accept()
				if err != nil {
					acceptErrCh <- err
					return
				}
				var hdr [4]byte
				if _, err := io.ReadFull(c, hdr[:]); err != nil {
					acceptErrCh <- err
					return
				}
				acceptCh <- accepted{id: int(binary.BigEndian.Uint32(hdr[:])), c: c}
			}
		}()
	}

	for _, id := range higherIDs {
		addr := byID[id]
		conn, err := dialWithRetry(addr.String(), cfg.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("transport: dial party %d at %s: %w", id, addr, err)
		}
		var hdr [4]byte
		binary.BigEndian.PutUint32(hdr[:], uint32(cfg.SelfID))
		if _, err := conn.Write(hdr[:]); err != nil {
			return nil, fmt.Errorf("transport: handshake with party %d: %w", id, err)
		}
		m.peers[id] = newFrameConn(conn, &m.sentBytes, &m.recvBytes)
	}

	for range lowerIDs {
		select {
		case a := <-acceptCh:
			m.peers[a.id] = newFrameConn(a.c, &m.sentBytes, &m.recvBytes)
		case err := <-acceptErrCh:
			return nil, fmt.Errorf("transport: accept: %w", err)
		}
	}

	return m, nil
}

func dialWithRetry(addr string, timeout time.Duration) (net.Conn, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deadline := time.Now().Add(30 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	return nil, lastErr
}
