// Package rng provides the seeded random sources that stochastic policies
// consume.
//
// # Determinism
//
// A Stream is a pure function of (seed, nonce, cursor). Two streams built from
// the same triple produce the same draws in the same order, so a replay only
// needs the seed, the nonce and the number of draws already consumed.
//
// # Draw accounting
//
// Every Float64, Uint32 and Intn call consumes exactly one draw (four bytes).
// Policies document how many draws they take per call.
package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

// Source is what a stochastic policy reads from. It is carried by the Input
// and never stored in State.
type Source interface {
	Float64() float64
	Uint32() uint32
	Intn(n int) int
	Draws() uint64
}

const roundBytes = sha256.Size

// Stream derives bytes from HMAC-SHA256(seed, "nonce:round") blocks.
type Stream struct {
	key    []byte
	nonce  uint64
	round  uint64
	pos    int
	buf    [roundBytes]byte
	draws  uint64
	cursor uint64
}

func NewStream(seed int64, nonce uint64) *Stream {
	return NewStreamAt(seed, nonce, 0)
}

// NewStreamAt resumes a stream after cursor bytes have been consumed.
func NewStreamAt(seed int64, nonce uint64, cursor uint64) *Stream {
	s := &Stream{
		key:    []byte(strconv.FormatInt(seed, 10)),
		nonce:  nonce,
		round:  cursor / roundBytes,
		pos:    int(cursor % roundBytes),
		cursor: cursor,
	}
	s.fill()
	return s
}

func (s *Stream) fill() {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(strconv.FormatUint(s.nonce, 10) + ":" + strconv.FormatUint(s.round, 10)))
	copy(s.buf[:], h.Sum(nil))
}

func (s *Stream) next() byte {
	if s.pos >= roundBytes {
		s.round++
		s.pos = 0
		s.fill()
	}
	b := s.buf[s.pos]
	s.pos++
	s.cursor++
	return b
}

func (s *Stream) Uint32() uint32 {
	var b [4]byte
	for i := range b {
		b[i] = s.next()
	}
	s.draws++
	return binary.BigEndian.Uint32(b[:])
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / (1 << 32)
}

// Intn returns a value in [0, n). n <= 0 yields 0 and still consumes a draw.
func (s *Stream) Intn(n int) int {
	f := s.Float64()
	if n <= 0 {
		return 0
	}
	return int(f * float64(n))
}

func (s *Stream) Draws() uint64 { return s.draws }

// Cursor is the number of bytes consumed; pass it to NewStreamAt to resume.
func (s *Stream) Cursor() uint64 { return s.cursor }

// Fixed replays a fixed list of floats, cycling when exhausted. Tests use it
// to force a policy down a known branch.
type Fixed struct {
	Values []float64
	i      int
	draws  uint64
}

func NewFixed(values ...float64) *Fixed { return &Fixed{Values: values} }

func (f *Fixed) Float64() float64 {
	f.draws++
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.i%len(f.Values)]
	f.i++
	return v
}

func (f *Fixed) Uint32() uint32 { return uint32(f.Float64() * (1 << 32)) }

func (f *Fixed) Intn(n int) int {
	v := f.Float64()
	if n <= 0 {
		return 0
	}
	return int(v * float64(n))
}

func (f *Fixed) Draws() uint64 { return f.draws }

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Derive gives each entity its own nonce under a shared seed so entities can
// be stepped in any order without sharing a stream.
func Derive(seed int64, tick uint64, index int) uint64 {
	v := uint64(seed) ^ (tick * 0x9e3779b97f4a7c15) ^ (uint64(index) * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
