package corpus

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrInsufficientCorpus is returned when a pool cannot fill the requested sample.
var ErrInsufficientCorpus = errors.New("insufficient corpus")

// Sampler draws phrase subsets without replacement.
type Sampler struct {
	rnd *rand.Rand
}

// NewSampler returns a Sampler seeded with the current time.
func NewSampler() *Sampler {
	return NewSeededSampler(time.Now().UnixNano())
}

// NewSeededSampler returns a Sampler with a fixed seed.
func NewSeededSampler(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

// Sample returns n distinct elements of pool chosen uniformly at random. The pool is
// not modified. Only the first n positions of a Fisher-Yates shuffle are computed.
func (s *Sampler) Sample(pool []string, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size must be >= 0, got %d", n)
	}
	if n > len(pool) {
		return nil, fmt.Errorf("%w: need %d phrases, have %d", ErrInsufficientCorpus, n, len(pool))
	}
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	for i := 0; i < n; i++ {
		j := i + s.rnd.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n:n], nil
}
