// Package backend is the engine's Boolean-GMW-style circuit backend: it
// evaluates XOR/NOT locally and AND over one communication round using
// Beaver triples, and owns the mesh/statistics for the party's lifetime.
// It plays the role the teacher's cgo binding to libcbmpc played — an
// opaque, swappable backend the rest of the engine calls into — but is
// pure Go since no such native library is available to bind to (see
// DESIGN.md).
package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/transport"
	"github.com/encryptogroup/PrivMail/internal/wire"
)

// Stats accumulates runtime and communication statistics for one party,
// merged into the JSON report alongside the shape counters (§6.5).
type Stats struct {
	ANDGates     uint64        `json:"and_gates"`
	OnlineRounds uint64        `json:"online_rounds"`
	BytesSent    uint64        `json:"bytes_sent"`
	BytesRecv    uint64        `json:"bytes_recv"`
	OnlineTime   time.Duration `json:"-"`
	FinishTime   time.Duration `json:"-"`
}

// MarshalJSON flattens durations to milliseconds, the unit the statistics
// JSON report (§6.5) is expected to merge at the top level.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	return json.Marshal(struct {
		alias
		OnlineTimeMS int64 `json:"online_time_ms"`
		FinishTimeMS int64 `json:"finish_time_ms"`
	}{alias(s), s.OnlineTime.Milliseconds(), s.FinishTime.Milliseconds()})
}

// Party owns its mesh, its logger, and the circuit backend state for the
// lifetime of one circuit construction + evaluation. A Party is not
// re-entrant: each benchmark iteration must build a fresh one (§3
// "Lifecycle"), mirroring demos-go/examples/ecdsa-mpc-with-backup's
// per-call job creation.
type Party struct {
	id     int
	n      int
	mesh   *transport.Mesh
	dealer *dealer
	logger *log.Logger

	gateCtr  uint64
	stats    Stats
	finished bool
}

// NewParty constructs a party bound to the given mesh. seed must be the
// same (e.g. via DeriveSeed) at every party in the mesh.
func NewParty(mesh *transport.Mesh, seed []byte, logger *log.Logger) *Party {
	if logger == nil {
		logger = log.New(os.Stderr, fmt.Sprintf("[party %d] ", mesh.ID()), log.LstdFlags)
	}
	return &Party{
		id:     mesh.ID(),
		n:      mesh.NParties(),
		mesh:   mesh,
		dealer: newDealer(seed, mesh.NParties(), mesh.ID()),
		logger: logger,
	}
}

// DisableLogging discards this party's log output, for --disable-logging.
func (p *Party) DisableLogging() {
	p.logger.SetOutput(io.Discard)
}

// ID is this party's index.
func (p *Party) ID() int { return p.id }

// NParties is the number of parties participating.
func (p *Party) NParties() int { return p.n }

// Const lifts a public constant into this party's share of a 1-bit wire.
func (p *Party) Const(v bool) wire.Bit { return wire.Const(p.id, v) }

// Xor computes a secret-shared XOR: local, free, no communication.
func (p *Party) Xor(a, b wire.Bit) wire.Bit {
	return wire.Bit{Share: a.Share != b.Share}
}

// Not computes a secret-shared NOT: only the reference party (id 0) flips
// its share, since XOR-ing every party's share still reconstructs the
// negated plaintext.
func (p *Party) Not(a wire.Bit) wire.Bit {
	s := a.Share
	if p.id == 0 {
		s = !s
	}
	return wire.Bit{Share: s}
}

// And computes a secret-shared AND gate: one Beaver triple, one
// communication round.
func (p *Party) And(a, b wire.Bit) (wire.Bit, error) {
	res, err := p.AndSimd(wire.Simd{Shares: []bool{a.Share}}, wire.Simd{Shares: []bool{b.Share}})
	if err != nil {
		return wire.Bit{}, err
	}
	return wire.Bit{Share: res.Shares[0]}, nil
}

// Or computes a secret-shared OR gate as a ⊕ b ⊕ (a ∧ b).
func (p *Party) Or(a, b wire.Bit) (wire.Bit, error) {
	ab, err := p.And(a, b)
	if err != nil {
		return wire.Bit{}, err
	}
	return p.Xor(p.Xor(a, b), ab), nil
}

// XorSimd is the SIMD form of Xor.
func (p *Party) XorSimd(a, b wire.Simd) (wire.Simd, error) {
	if a.Width() != b.Width() {
		return wire.Simd{}, &circuiterr.ShapeMismatch{Context: "XorSimd", Want: a.Width(), Got: b.Width()}
	}
	out := make([]bool, a.Width())
	for i := range out {
		out[i] = a.Shares[i] != b.Shares[i]
	}
	return wire.Simd{Shares: out}, nil
}

// NotSimd is the SIMD form of Not.
func (p *Party) NotSimd(a wire.Simd) wire.Simd {
	out := make([]bool, a.Width())
	for i, s := range a.Shares {
		if p.id == 0 {
			s = !s
		}
		out[i] = s
	}
	return wire.Simd{Shares: out}
}

// AndSimd evaluates width parallel AND gates with a single communication
// round regardless of width — this is the batching payoff described in
// spec.md §4.5.2/§9: P·L character comparisons cost one round, not P·L
// rounds.
func (p *Party) AndSimd(a, b wire.Simd) (wire.Simd, error) {
	if a.Width() != b.Width() {
		return wire.Simd{}, &circuiterr.ShapeMismatch{Context: "AndSimd", Want: a.Width(), Got: b.Width()}
	}
	width := a.Width()
	if width == 0 {
		return wire.Simd{Shares: nil}, nil
	}

	gate := atomic.AddUint64(&p.gateCtr, 1) - 1
	triA, triB, triC := p.dealer.triple(gate, width)

	d := make([]bool, width)
	e := make([]bool, width)
	for i := 0; i < width; i++ {
		d[i] = a.Shares[i] != triA[i]
		e[i] = b.Shares[i] != triB[i]
	}

	start := time.Now()
	payload := packBools(append(append([]bool(nil), d...), e...))
	all, err := p.mesh.Exchange(payload)
	if err != nil {
		return wire.Simd{}, fmt.Errorf("AndSimd: online round: %w", err)
	}
	p.stats.OnlineTime += time.Since(start)
	p.stats.OnlineRounds++

	pubD := make([]bool, width)
	pubE := make([]bool, width)
	for _, bits := range all {
		combined := unpackBools(bits, 2*width)
		dd, ee := combined[:width], combined[width:]
		for i := 0; i < width; i++ {
			pubD[i] = pubD[i] != dd[i]
			pubE[i] = pubE[i] != ee[i]
		}
	}

	out := make([]bool, width)
	for i := 0; i < width; i++ {
		z := triC[i] != (pubD[i] && triB[i])
		z = z != (pubE[i] && triA[i])
		if p.id == 0 {
			z = z != (pubD[i] && pubE[i])
		}
		out[i] = z
	}
	p.stats.ANDGates += uint64(width)
	return wire.Simd{Shares: out}, nil
}

// OrSimd is the SIMD form of Or.
func (p *Party) OrSimd(a, b wire.Simd) (wire.Simd, error) {
	ab, err := p.AndSimd(a, b)
	if err != nil {
		return wire.Simd{}, err
	}
	axb, err := p.XorSimd(a, b)
	if err != nil {
		return wire.Simd{}, err
	}
	return p.XorSimd(axb, ab)
}

// Run performs the online phase. In this backend every gate already
// executes inline as it is built (there is no separate symbolic circuit
// to evaluate later), so Run is the synchronization barrier confirming
// every party has issued its last AND gate and is ready to tear down the
// mesh cleanly — matching the suspension point described in spec.md §5.
func (p *Party) Run() error {
	start := time.Now()
	_, err := p.mesh.Exchange([]byte{0})
	p.stats.OnlineTime += time.Since(start)
	return err
}

// Finish performs the final synchronization and releases the mesh. It is
// always safe to call exactly once after Run.
func (p *Party) Finish() error {
	if p.finished {
		return nil
	}
	start := time.Now()
	_, err := p.mesh.Exchange([]byte{1})
	p.stats.FinishTime = time.Since(start)
	p.finished = true
	closeErr := p.mesh.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// Stats returns a snapshot of this party's runtime/communication counters.
func (p *Party) Stats() Stats {
	s := p.stats
	s.BytesSent += p.mesh.BytesSent()
	s.BytesRecv += p.mesh.BytesRecv()
	return s
}

// Declassify reconstructs the plaintext of a 1-bit wire by exchanging and
// XOR-combining every party's share. It exists only for test mode (§8);
// internal/driver never calls it, keeping results secret-shared by
// default per the Open Question resolution in DESIGN.md.
func (p *Party) Declassify(b wire.Bit) (bool, error) {
	all, err := p.mesh.Exchange(packBools([]bool{b.Share}))
	if err != nil {
		return false, fmt.Errorf("declassify: %w", err)
	}
	result := false
	for _, bits := range all {
		v := unpackBools(bits, 1)
		result = result != v[0]
	}
	return result, nil
}

func packBools(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func unpackBools(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			break
		}
		out[i] = data[byteIdx]&(1<<uint(7-i%8)) != 0
	}
	return out
}
