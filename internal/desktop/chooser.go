package desktop

import (
	"math/rand/v2"
	"sync"
)

// Chooser picks uniformly distributed indices. Implementations must be safe
// for concurrent use; the hunger and mischief workers share one executor.
type Chooser interface {
	// IntN returns a value in [0, n). n is always positive.
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomChooser returns a Chooser seeded from the runtime's entropy.
func NewRandomChooser() Chooser {
	return &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
