package selection

import (
	"errors"
	"fmt"
	"sync"

	"github.com/osvaldoandrade/scanq/pkg/catalog"
	"github.com/osvaldoandrade/scanq/pkg/domain"
)

// ErrUnknownWorker is returned for toggles naming a worker that is not
// surfaced, either because the catalog never listed it or because it has no
// replicas.
var ErrUnknownWorker = errors.New("unknown worker")

// Matrix tracks which analysis workers a submission should run. Every
// surfaced worker starts enabled; only explicit toggles change that. The
// matrix exists even when the advanced panel is hidden, so a submitter who
// never sees it ships an empty disabled set.
type Matrix struct {
	mu      sync.Mutex
	order   []domain.Worker
	enabled map[string]bool
}

// NewMatrix builds a matrix over the selectable subset of the catalog.
// Zero-replica workers are dropped here and can never be toggled nor appear
// in a disabled-set output.
func NewMatrix(workers []domain.Worker) *Matrix {
	surfaced := catalog.Selectable(workers)
	m := &Matrix{
		order:   surfaced,
		enabled: make(map[string]bool, len(surfaced)),
	}
	for _, w := range surfaced {
		m.enabled[w.Name] = true
	}
	return m
}

// Workers returns the surfaced descriptors in catalog order.
func (m *Matrix) Workers() []domain.Worker {
	out := make([]domain.Worker, len(m.order))
	copy(out, m.order)
	return out
}

// Toggle flips one worker's enabled flag.
func (m *Matrix) Toggle(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.enabled[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownWorker, name)
	}
	m.enabled[name] = !cur
	return nil
}

// SetEnabled sets one worker's flag explicitly.
func (m *Matrix) SetEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enabled[name]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownWorker, name)
	}
	m.enabled[name] = enabled
	return nil
}

// Enabled reports one worker's current flag; false for unknown names.
func (m *Matrix) Enabled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[name]
}

// Disabled returns every surfaced worker currently switched off, in catalog
// order. Pure read.
func (m *Matrix) Disabled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, w := range m.order {
		if !m.enabled[w.Name] {
			out = append(out, w.Name)
		}
	}
	return out
}
