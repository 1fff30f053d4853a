// Package dice provides the randomness abstraction and roll-result types used
// by the Neonreach combat engine. All combat randomness flows through a Source
// so that a fixed source makes skill resolution fully deterministic.
package dice

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand"
	"sync"
)

// Source is the randomness provider for dice rolls and chance checks.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource implements Source using a seeded math/rand generator, for
// reproducible simulation runs. A mutex guards the non-thread-safe generator.
type seededSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeededSource returns a deterministic Source seeded with seed.
// Two sources built from the same seed produce identical sequences.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: mathrand.New(mathrand.NewSource(seed))}
}

// Intn returns a deterministic pseudo-random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Chance performs a percentage check against src.
// p is a probability in [0, 1]; values outside the range are clamped.
//
// Postcondition: Returns true with probability ~p (exactly 0 for p <= 0,
// exactly 1 for p >= 1).
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(10000) < int(p*10000)
}
