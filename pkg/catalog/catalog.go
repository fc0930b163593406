package catalog

import (
	"github.com/osvaldoandrade/scanq/pkg/domain"
)

// Selectable filters a catalog down to the workers a submitter may ever see
// or toggle: only entries with at least one replica, in the catalog's own
// order. A worker with zero replicas is invisible end-to-end; it never shows
// up in a selection panel nor in any disabled-set computation.
func Selectable(all []domain.Worker) []domain.Worker {
	out := make([]domain.Worker, 0, len(all))
	for _, w := range all {
		if w.Replicas > 0 {
			out = append(out, w)
		}
	}
	return out
}

// Names returns the worker names in order.
func Names(workers []domain.Worker) []string {
	names := make([]string, 0, len(workers))
	for _, w := range workers {
		names = append(names, w.Name)
	}
	return names
}
