package rng

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"math/big"
	r2 "math/rand/v2"
)

// Source is the randomness capability handed to outcome generators.
type Source interface {
	// IntN returns a uniform int in [0, n). n must be > 0.
	IntN(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

type cryptoSource struct{}

// Crypto returns a Source backed by crypto/rand. It is the production default.
func Crypto() Source {
	return cryptoSource{}
}

func (cryptoSource) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func (cryptoSource) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// Seeded is a deterministic PCG source. Equal seeds produce equal streams.
type Seeded struct {
	rng *r2.Rand
}

// NewSeeded returns a PCG source whose state is expanded from seed with splitmix64.
func NewSeeded(seed int64) *Seeded {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	hi := splitmix64(x)
	lo := splitmix64(x ^ 0xDA942042E4DD58B5)
	return &Seeded{rng: r2.New(r2.NewPCG(hi, lo))}
}

// NewRandomSeed draws a seed from crypto/rand, for callers that want to log and replay it.
func NewRandomSeed() int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 1
	}
	return v.Int64()
}

func (s *Seeded) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}

func (s *Seeded) Float64() float64 {
	return s.rng.Float64()
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Fixed replays scripted values. When a queue runs dry it returns 0.
// Ints are clamped into [0, n).
type Fixed struct {
	Ints   []int
	Floats []float64
}

func (f *Fixed) IntN(n int) int {
	if len(f.Ints) == 0 || n <= 0 {
		return 0
	}
	v := f.Ints[0]
	f.Ints = f.Ints[1:]
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (f *Fixed) Float64() float64 {
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[0]
	f.Floats = f.Floats[1:]
	return v
}
