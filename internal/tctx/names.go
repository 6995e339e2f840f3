package tctx

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NameGenerator mints unique names for the locals introduced while the
// simplifier descends into binders.
// Implemented by UUIDNames (production) and SeqNames (tests, golden files).
type NameGenerator interface {
	Generate() string
}

// UUIDNames generates time-sortable UUIDv7 local names.
//
// Thread-safety: UUIDNames is stateless and safe for concurrent use.
type UUIDNames struct{}

// Generate panics if UUID generation fails (should never happen in practice).
func (UUIDNames) Generate() string {
	return "_uniq." + uuid.Must(uuid.NewV7()).String()
}

// SeqNames returns "<prefix>.1", "<prefix>.2", ... so that traces and
// golden output are reproducible.
//
// Thread-safety: SeqNames is safe for concurrent use via internal mutex.
type SeqNames struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqNames creates a deterministic generator. An empty prefix
// defaults to "_local".
func NewSeqNames(prefix string) *SeqNames {
	if prefix == "" {
		prefix = "_local"
	}
	return &SeqNames{prefix: prefix}
}

func (g *SeqNames) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s.%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SeqNames) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
