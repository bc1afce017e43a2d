package classify

import "github.com/bryan-cox/grantledger/internal/model"

// Registry holds tasks keyed by permalink in arrival order. It is complete
// before any proposal is resolved and is not modified afterwards.
type Registry struct {
	order []string
	tasks map[string]model.Task
}

func newRegistry() *Registry {
	return &Registry{tasks: make(map[string]model.Task)}
}

// add registers t. A later record with the same permalink replaces the
// earlier one but keeps its position.
func (r *Registry) add(t model.Task) {
	if _, exists := r.tasks[t.URL]; !exists {
		r.order = append(r.order, t.URL)
	}
	r.tasks[t.URL] = t
}

// Lookup returns the task registered under url.
func (r *Registry) Lookup(url string) (model.Task, bool) {
	t, ok := r.tasks[url]
	return t, ok
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	return len(r.order)
}

// Ledger joins the task registry with the proposals linked to each task.
type Ledger struct {
	registry  *Registry
	proposals map[string][]model.Proposal

	// Failures lists the records skipped in keep-going mode.
	Failures []*RecordError
}

// Registry returns the task registry.
func (l *Ledger) Registry() *Registry {
	return l.registry
}

// Tasks returns every task in arrival order.
func (l *Ledger) Tasks() []model.Task {
	out := make([]model.Task, 0, len(l.registry.order))
	for _, url := range l.registry.order {
		out = append(out, l.registry.tasks[url])
	}
	return out
}

// Proposals returns the proposals linked to the task at taskURL, in arrival order.
func (l *Ledger) Proposals(taskURL string) []model.Proposal {
	ps := l.proposals[taskURL]
	if len(ps) == 0 {
		return nil
	}
	out := make([]model.Proposal, len(ps))
	copy(out, ps)
	return out
}

// ProposalCount returns the number of linked proposals across all tasks.
func (l *Ledger) ProposalCount() int {
	n := 0
	for _, ps := range l.proposals {
		n += len(ps)
	}
	return n
}
